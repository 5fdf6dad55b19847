// Package auth provides pluggable authentication for the console API.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is HTTP middleware. On success it injects the caller's identity and
// connection id into the request context so handlers can look up the
// connection the session belongs to.
package auth
