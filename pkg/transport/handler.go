package transport

import (
	"context"
	"time"

	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/console"
)

// Console owns the open connections and the grid views opened on them.
// It is implemented by *console.Connections.
type Console interface {
	Version() string
	Backend() string

	// Connect dials a vector database and returns the new connection.
	Connect(ctx context.Context, target catalog.Target) (*console.Connection, error)

	// Get returns an open connection. Returns console.ErrConnectionNotFound
	// if the connection was closed.
	Get(id string) (*console.Connection, error)

	// Disconnect closes a connection and all of its views.
	Disconnect(id string) error

	// OpenView creates, loads and registers a view on a connection.
	OpenView(ctx context.Context, connID string, spec console.ViewSpec) (console.View, error)

	// View returns an open view. Returns console.ErrViewNotFound if the
	// view does not exist for the connection.
	View(connID, id string) (console.View, error)

	// CloseView removes a view.
	CloseView(connID, id string) error

	// Views returns the registry of open views.
	Views() *console.Registry
}

// SessionIssuer signs the session token returned by POST /v1/connect.
type SessionIssuer interface {
	Issue(connectionID, username string) (token string, expires time.Time, err error)
}

var _ Console = (*console.Connections)(nil)
