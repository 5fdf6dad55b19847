package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/rhuss/vdbconsole/pkg/api"
	"github.com/rhuss/vdbconsole/pkg/auth"
	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/console"
	"github.com/rhuss/vdbconsole/pkg/debug"
	"github.com/rhuss/vdbconsole/pkg/grid"
	"github.com/rhuss/vdbconsole/pkg/observability"
	"github.com/rhuss/vdbconsole/pkg/transport"
)

// Adapter serves the console API over HTTP.
// It routes requests to the Console and serializes view snapshots.
type Adapter struct {
	console  transport.Console
	sessions transport.SessionIssuer
	inflight *transport.InFlightRegistry
	mux      *http.ServeMux
	config   Config
	ready    atomic.Bool
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64

	// ConnectLimiter bounds connect attempts per remote host. Nil disables
	// the limit.
	ConnectLimiter *auth.ConnectLimiter
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB, room for CSV imports
	}
}

// NewAdapter creates an HTTP adapter for c. Tokens for new connections are
// signed by sessions.
func NewAdapter(c transport.Console, sessions transport.SessionIssuer, cfg Config) *Adapter {
	a := &Adapter{
		console:  c,
		sessions: sessions,
		inflight: transport.NewInFlightRegistry(),
		mux:      http.NewServeMux(),
		config:   cfg,
	}
	a.ready.Store(true)

	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	a.mux.HandleFunc("GET /readyz", a.handleReady)
	a.mux.HandleFunc("GET /v1/version", a.handleVersion)

	a.mux.HandleFunc("POST /v1/connect", a.handleConnect)
	a.mux.HandleFunc("DELETE /v1/connect", a.handleDisconnect)
	a.mux.HandleFunc("GET /v1/connection", a.handleConnection)

	a.mux.HandleFunc("POST /v1/views", a.handleCreateView)
	a.mux.HandleFunc("GET /v1/views", a.handleListViews)
	a.mux.HandleFunc("GET /v1/views/{id}", a.withView(a.handleGetView))
	a.mux.HandleFunc("DELETE /v1/views/{id}", a.handleCloseView)
	a.mux.HandleFunc("POST /v1/views/{id}/refresh", a.withView(a.handleRefresh))
	a.mux.HandleFunc("POST /v1/views/{id}/sort", a.withView(a.handleSort))
	a.mux.HandleFunc("POST /v1/views/{id}/page", a.withView(a.handlePage))
	a.mux.HandleFunc("POST /v1/views/{id}/page_size", a.withView(a.handlePageSize))
	a.mux.HandleFunc("POST /v1/views/{id}/selection", a.withView(a.handleSelection))
	a.mux.HandleFunc("POST /v1/views/{id}/search", a.withView(a.handleSearch))
	a.mux.HandleFunc("POST /v1/views/{id}/actions/{action}", a.withView(a.handleAction))

	return a
}

// Handle registers an additional handler, such as the metrics or MCP
// endpoint, on the adapter's mux.
func (a *Adapter) Handle(pattern string, h http.Handler) {
	a.mux.Handle(pattern, h)
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// SetReady flips the readiness check. The server clears it on shutdown.
func (a *Adapter) SetReady(ready bool) {
	a.ready.Store(ready)
}

func (a *Adapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (a *Adapter) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !a.ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready\n"))
}

// handleVersion handles GET /v1/version.
func (a *Adapter) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.VersionResponse{
		Version: a.console.Version(),
		Backend: a.console.Backend(),
	})
}

// handleConnect handles POST /v1/connect.
func (a *Adapter) handleConnect(w http.ResponseWriter, r *http.Request) {
	if l := a.config.ConnectLimiter; l != nil {
		if err := l.Allow(r.RemoteAddr); err != nil {
			observability.ConnectRejectedTotal.Inc()
			slog.Warn("connect rate limit exceeded", "remote_addr", r.RemoteAddr)
			transport.WriteAPIError(w, api.NewTooManyRequestsError("too many connect attempts"))
			return
		}
	}

	var req api.ConnectRequest
	if !a.decode(w, r, &req) {
		return
	}

	conn, err := a.console.Connect(r.Context(), catalog.Target{
		Address:  req.Address,
		Username: req.Username,
		Password: req.Password,
		Token:    req.Token,
		Database: req.Database,
	})
	if err != nil {
		slog.Warn("connect failed", "address", req.Address, "error", err)
		transport.WriteError(w, err)
		return
	}

	token, expires, err := a.sessions.Issue(conn.ID, req.Username)
	if err != nil {
		a.console.Disconnect(conn.ID)
		transport.WriteAPIError(w, api.NewServerError(err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, api.ConnectResponse{
		ConnectionID: conn.ID,
		Token:        token,
		ExpiresAt:    expires,
		Address:      conn.Target.Address,
		Database:     conn.Target.Database,
		Version:      a.console.Version(),
	})
}

// handleDisconnect handles DELETE /v1/connect.
func (a *Adapter) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	connID, ok := connection(w, r)
	if !ok {
		return
	}
	for _, id := range a.console.Views().List(connID) {
		a.inflight.Cancel(id)
	}
	if err := a.console.Disconnect(connID); err != nil && !errors.Is(err, console.ErrConnectionNotFound) {
		slog.Warn("closing backend connection", "connection", connID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConnection handles GET /v1/connection.
func (a *Adapter) handleConnection(w http.ResponseWriter, r *http.Request) {
	connID, ok := connection(w, r)
	if !ok {
		return
	}
	conn, err := a.console.Get(connID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ConnectionInfo{
		ConnectionID: conn.ID,
		Address:      conn.Target.Address,
		Username:     conn.Target.Username,
		Database:     conn.Target.Database,
		ConnectedAt:  conn.ConnectedAt,
		Views:        a.console.Views().Len(conn.ID),
	})
}

// handleCreateView handles POST /v1/views.
func (a *Adapter) handleCreateView(w http.ResponseWriter, r *http.Request) {
	connID, ok := connection(w, r)
	if !ok {
		return
	}
	var req api.CreateViewRequest
	if !a.decode(w, r, &req) {
		return
	}

	v, err := a.console.OpenView(r.Context(), connID, console.ViewSpec{
		Kind:       req.Kind,
		Collection: req.Collection,
		Type:       req.Type,
		Target:     req.Target,
		PageSize:   req.PageSize,
	})
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	debug.Log("transport", "view opened", "connection", connID, "view", v.ID(), "kind", v.Kind())
	writeJSON(w, http.StatusCreated, v.Snapshot())
}

// handleListViews handles GET /v1/views.
func (a *Adapter) handleListViews(w http.ResponseWriter, r *http.Request) {
	connID, ok := connection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, api.ViewList{Object: "list", Data: a.console.Views().List(connID)})
}

// handleCloseView handles DELETE /v1/views/{id}.
func (a *Adapter) handleCloseView(w http.ResponseWriter, r *http.Request) {
	connID, ok := connection(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if !api.ValidateViewID(id) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed view ID"))
		return
	}
	if err := a.console.CloseView(connID, id); err != nil {
		transport.WriteError(w, err)
		return
	}
	a.inflight.Cancel(id)
	w.WriteHeader(http.StatusNoContent)
}

// viewHandler handles a request addressed to an open view.
type viewHandler func(w http.ResponseWriter, r *http.Request, v console.View)

// withView resolves the {id} path value to a view of the caller's connection.
func (a *Adapter) withView(h viewHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connID, ok := connection(w, r)
		if !ok {
			return
		}
		id := r.PathValue("id")
		if !api.ValidateViewID(id) {
			transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed view ID"))
			return
		}
		v, err := a.console.View(connID, id)
		if err != nil {
			transport.WriteError(w, err)
			return
		}
		h(w, r, v)
	}
}

func (a *Adapter) handleGetView(w http.ResponseWriter, _ *http.Request, v console.View) {
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (a *Adapter) handleRefresh(w http.ResponseWriter, r *http.Request, v console.View) {
	ctx, done := a.inflight.Track(r.Context(), v.ID())
	defer done()
	if err := v.Refresh(ctx); err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

// handleSort toggles the sort of a column, or sets it when an order is given.
// Columns that are not sortable leave the sort unchanged.
func (a *Adapter) handleSort(w http.ResponseWriter, r *http.Request, v console.View) {
	var req api.SortRequest
	if !a.decode(w, r, &req) {
		return
	}
	var changed bool
	if req.Order == "" {
		changed = v.ToggleSort(req.Field)
	} else {
		order, _ := grid.ParseOrder(req.Order)
		changed = v.SetSort(req.Field, order)
	}
	debug.Log("transport", "sort requested", "view", v.ID(), "field", req.Field, "changed", changed)
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (a *Adapter) handlePage(w http.ResponseWriter, r *http.Request, v console.View) {
	var req api.PageRequest
	if !a.decode(w, r, &req) {
		return
	}
	v.SetPage(req.Page)
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (a *Adapter) handlePageSize(w http.ResponseWriter, r *http.Request, v console.View) {
	var req api.PageSizeRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := v.SetPageSize(req.PageSize); err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (a *Adapter) handleSelection(w http.ResponseWriter, r *http.Request, v console.View) {
	var req api.SelectionRequest
	if !a.decode(w, r, &req) {
		return
	}
	v.Select(req.Keys)
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (a *Adapter) handleSearch(w http.ResponseWriter, r *http.Request, v console.View) {
	var req api.SearchRequest
	if !a.decode(w, r, &req) {
		return
	}
	ctx, done := a.inflight.Track(r.Context(), v.ID())
	defer done()
	if err := v.Search(ctx, req.Text); err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

// handleAction handles POST /v1/views/{id}/actions/{action}. A request
// without params opens the action's dialog.
func (a *Adapter) handleAction(w http.ResponseWriter, r *http.Request, v console.View) {
	var req api.ActionRequest
	if !a.decode(w, r, &req) {
		return
	}
	ctx, done := a.inflight.Track(r.Context(), v.ID())
	defer done()
	if err := v.Trigger(ctx, r.PathValue("action"), req.Params); err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

// connection returns the connection the caller's session is bound to. It
// writes an unauthorized error when there is none.
func connection(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.ConnectionFromContext(r.Context())
	if id == "" {
		transport.WriteAPIError(w, api.NewUnauthorizedError("a session token is required"))
		return "", false
	}
	return id, true
}

// decode reads a JSON request body into v and validates it. An empty body
// decodes to the zero value. On failure the error response is written and
// false is returned.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		return false
	}

	if apiErr := api.Validate(v); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
