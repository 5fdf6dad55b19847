package console

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rhuss/vdbconsole/pkg/api"
	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/observability"
)

// Connection is an open session with a vector database.
type Connection struct {
	ID          string
	Target      catalog.Target
	Catalog     catalog.Catalog
	ConnectedAt time.Time
}

// Config configures a Connections manager.
type Config struct {
	// Version is reported by the console.
	Version string

	// Backend names the dialer's backend kind.
	Backend string

	// MaxViews bounds the open views per connection. 0 = unlimited.
	MaxViews int

	// Grid holds the defaults for new views.
	Grid Options
}

// ViewSpec describes a view to open.
type ViewSpec struct {
	Kind       string
	Collection string
	Type       string
	Target     string
	PageSize   int
}

// Connections owns the open connections and their views. It is safe for
// concurrent use.
type Connections struct {
	dialer catalog.Dialer
	cfg    Config
	views  *Registry
	now    func() time.Time

	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnections creates a manager that opens connections with dialer.
func NewConnections(dialer catalog.Dialer, cfg Config) *Connections {
	return &Connections{
		dialer: dialer,
		cfg:    cfg,
		views:  NewRegistry(cfg.MaxViews),
		now:    time.Now,
		conns:  make(map[string]*Connection),
	}
}

// Version returns the console version.
func (c *Connections) Version() string { return c.cfg.Version }

// Backend returns the backend kind.
func (c *Connections) Backend() string { return c.cfg.Backend }

// Views returns the view registry.
func (c *Connections) Views() *Registry { return c.views }

// Connect dials target and verifies the backend answers.
func (c *Connections) Connect(ctx context.Context, target catalog.Target) (*Connection, error) {
	if target.Database == "" {
		target.Database = catalog.DefaultDatabase
	}
	cat, err := c.dialer.Dial(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", target.Address, err)
	}
	if err := cat.HealthCheck(catalog.ContextWithDatabase(ctx, target.Database)); err != nil {
		cat.Close()
		return nil, fmt.Errorf("checking %s: %w", target.Address, err)
	}

	conn := &Connection{
		ID:          api.NewConnectionID(),
		Target:      target,
		Catalog:     cat,
		ConnectedAt: c.now(),
	}
	c.mu.Lock()
	c.conns[conn.ID] = conn
	c.mu.Unlock()
	observability.ConnectionsActive.Inc()

	slog.Info("connection opened", "connection", conn.ID, "address", target.Address, "database", target.Database)
	return conn, nil
}

// Get returns an open connection.
func (c *Connections) Get(id string) (*Connection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.conns[id]
	if !ok {
		return nil, fmt.Errorf("connection %q: %w", id, ErrConnectionNotFound)
	}
	return conn, nil
}

// List returns the open connections, oldest first.
func (c *Connections) List() []*Connection {
	c.mu.RLock()
	out := make([]*Connection, 0, len(c.conns))
	for _, conn := range c.conns {
		out = append(out, conn)
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Connection) int {
		return cmp.Or(a.ConnectedAt.Compare(b.ConnectedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Disconnect closes a connection and all of its views.
func (c *Connections) Disconnect(id string) error {
	c.mu.Lock()
	conn, ok := c.conns[id]
	delete(c.conns, id)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("connection %q: %w", id, ErrConnectionNotFound)
	}
	observability.ConnectionsActive.Dec()

	n := c.views.Drop(id)
	slog.Info("connection closed", "connection", id, "views", n)
	return conn.Catalog.Close()
}

// Close disconnects everything.
func (c *Connections) Close() error {
	var errs []error
	for _, conn := range c.List() {
		if err := c.Disconnect(conn.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenView creates a view for connID, loads it and registers it.
func (c *Connections) OpenView(ctx context.Context, connID string, spec ViewSpec) (View, error) {
	conn, err := c.Get(connID)
	if err != nil {
		return nil, err
	}
	opts := c.cfg.Grid
	if spec.PageSize > 0 {
		opts.PageSize = spec.PageSize
	}

	id := api.NewViewID()
	var v View
	switch spec.Kind {
	case api.ViewPartitions:
		if err := catalog.ValidateName(spec.Collection); err != nil {
			return nil, err
		}
		v, err = NewPartitionsView(id, conn.Catalog, conn.Target.Database, spec.Collection, opts)
	case api.ViewProperties:
		v, err = NewPropertiesView(id, conn.Catalog, conn.Target.Database, spec.Type, spec.Target, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownViewKind, spec.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}

	// Registering under mu orders the add before or after a Disconnect,
	// which drops views only once the connection is gone from the map.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conns[connID] != conn {
		return nil, fmt.Errorf("connection %q: %w", connID, ErrConnectionNotFound)
	}
	if evicted := c.views.Add(connID, v); evicted != "" {
		slog.Debug("view evicted", "connection", connID, "view", evicted)
	}
	return v, nil
}

// View returns an open view of connID.
func (c *Connections) View(connID, id string) (View, error) {
	return c.views.Get(connID, id)
}

// CloseView removes a view of connID.
func (c *Connections) CloseView(connID, id string) error {
	return c.views.Remove(connID, id)
}
