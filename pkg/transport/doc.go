// Package transport defines the HTTP middleware chain and error mapping of
// the vdbconsole API.
//
// The transport layer bridges HTTP clients and the console's open
// connections and views. Requests are decoded into the DTOs of pkg/api,
// dispatched to a Console, and answered with view snapshots or an
// api.ErrorResponse.
//
// # Handler Interfaces
//
// The HTTP adapter in transport/http depends on two interfaces:
//
//   - Console owns connections and the grid views opened on them.
//   - SessionIssuer signs the session token handed out on connect.
//
// # Middleware
//
// Middleware wraps an http.Handler. Built-in middleware provides panic
// recovery, request ID assignment (X-Request-ID), and structured access
// logging via log/slog. Metrics and authentication middleware live in
// pkg/observability and pkg/auth and compose with Chain.
//
// # Errors
//
// ToAPIError maps the sentinel errors of the catalog, grid, console and
// session packages onto api.APIError types; HTTPStatusFromError maps those
// onto status codes.
package transport
