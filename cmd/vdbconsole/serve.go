package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/vdbconsole/pkg/auth"
	"github.com/rhuss/vdbconsole/pkg/auth/session"
	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/catalog/memory"
	"github.com/rhuss/vdbconsole/pkg/catalog/milvus"
	"github.com/rhuss/vdbconsole/pkg/catalog/postgres"
	"github.com/rhuss/vdbconsole/pkg/config"
	"github.com/rhuss/vdbconsole/pkg/console"
	"github.com/rhuss/vdbconsole/pkg/debug"
	"github.com/rhuss/vdbconsole/pkg/mcptools"
	"github.com/rhuss/vdbconsole/pkg/observability"
	"github.com/rhuss/vdbconsole/pkg/transport"
	transporthttp "github.com/rhuss/vdbconsole/pkg/transport/http"
)

// app is the wired server. close releases the backend.
type app struct {
	conns   *console.Connections
	adapter *transporthttp.Adapter
	server  *transporthttp.Server
	close   func() error
}

func serve(ctx context.Context, cfg *config.Config) error {
	debug.Init(debug.Options{
		Categories: cfg.Debug.Categories,
		Level:      cfg.Debug.Level,
		Format:     cfg.Debug.Format,
	})

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("server starting",
		"port", cfg.Server.Port,
		"backend", cfg.Backend.Type,
		"version", version,
	)
	return a.server.Run(ctx)
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	dialer, closeBackend, err := newDialer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	conns := console.NewConnections(observability.InstrumentDialer(dialer, cfg.Backend.Type), console.Config{
		Version:  version,
		Backend:  cfg.Backend.Type,
		MaxViews: cfg.Console.MaxViews,
		Grid: console.Options{
			PageSize:        cfg.Grid.PageSize,
			DateLayout:      cfg.Grid.DateLayout,
			RetainSelection: cfg.Grid.RetainSelection,
		},
	})
	closeAll := func() error {
		err := conns.Close()
		if cerr := closeBackend(); err == nil {
			err = cerr
		}
		return err
	}

	sessions, err := newSessions(cfg.Auth, conns)
	if err != nil {
		closeAll()
		return nil, err
	}

	adapterCfg := transporthttp.DefaultConfig()
	if cfg.Auth.ConnectAttempts > 0 {
		adapterCfg.ConnectLimiter = auth.NewConnectLimiter(cfg.Auth.ConnectAttempts, cfg.Auth.ConnectWindow)
	}
	adapter := transporthttp.NewAdapter(conns, sessions, adapterCfg)

	if cfg.Observability.Metrics.Enabled {
		adapter.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
		slog.Info("metrics enabled", "path", cfg.Observability.Metrics.Path)
	}
	if cfg.MCP.Enabled {
		tools := mcptools.New(conns, console.Options{
			PageSize:   cfg.Grid.PageSize,
			DateLayout: cfg.Grid.DateLayout,
		}, version)
		adapter.Handle(cfg.MCP.Path, tools.Handler())
		slog.Info("mcp enabled", "path", cfg.MCP.Path)
	}

	chain := &auth.AuthChain{
		Authenticators:  []auth.Authenticator{sessions},
		DefaultDecision: auth.No,
	}
	var limiter auth.RateLimiter
	if cfg.Auth.RequestsPerMinute > 0 {
		limiter = auth.NewInProcessLimiter(cfg.Auth.RequestsPerMinute)
	}

	server := transporthttp.NewServer(adapter,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMiddleware(
			transport.Middleware(auth.Middleware(chain, limiter, bypassEndpoints(cfg))),
			observability.MetricsMiddleware,
		),
	)

	return &app{
		conns:   conns,
		adapter: adapter,
		server:  server,
		close:   closeAll,
	}, nil
}

// newDialer returns the dialer of the configured backend and a function
// releasing whatever the backend holds open.
func newDialer(ctx context.Context, cfg *config.Config) (catalog.Dialer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend.Type {
	case config.BackendMemory:
		store := memory.New()
		if cfg.Backend.Memory.Seed {
			if err := seed(ctx, store); err != nil {
				return nil, nil, fmt.Errorf("seeding memory backend: %w", err)
			}
		}
		return store.Dialer(), noop, nil

	case config.BackendPostgres:
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Backend.Postgres.DSN,
			MaxConns:       cfg.Backend.Postgres.MaxConns,
			MigrateOnStart: cfg.Backend.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres backend: %w", err)
		}
		return store.Dialer(), store.Close, nil

	case config.BackendMilvus:
		return milvus.Dialer{
			HTTPClient: &http.Client{Timeout: cfg.Backend.Milvus.Timeout},
			Allowed:    cfg.Backend.Milvus.AllowedAddresses,
		}, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown backend type %q", cfg.Backend.Type)
}

func newSessions(cfg config.AuthConfig, conns *console.Connections) (*session.Manager, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, session.MinSecretLength)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generating session secret: %w", err)
		}
		slog.Warn("no session secret configured, sessions will not survive a restart")
	}

	m, err := session.New(session.Config{Secret: secret, TTL: cfg.SessionTTL})
	if err != nil {
		return nil, err
	}
	m.SetActive(func(id string) bool {
		_, err := conns.Get(id)
		return err == nil
	})
	return m, nil
}

// bypassEndpoints returns the unauthenticated endpoints with the metrics
// path as configured.
func bypassEndpoints(cfg *config.Config) []string {
	out := slices.DeleteFunc(slices.Clone(auth.DefaultBypassEndpoints), func(e string) bool {
		return e == "/metrics"
	})
	if cfg.Observability.Metrics.Enabled {
		out = append(out, cfg.Observability.Metrics.Path)
	}
	return out
}

// seed loads a sample collection into a fresh memory store.
func seed(ctx context.Context, store *memory.Store) error {
	return store.Seed(ctx, catalog.Collection{
		Name: "books",
		Schema: &catalog.Schema{Fields: []catalog.Field{
			{Name: "id", DataType: "Int64", IsPrimaryKey: true, AutoID: true},
			{Name: "title", DataType: "VarChar"},
			{Name: "embedding", DataType: "FloatVector"},
		}},
		Properties: []catalog.KeyValue{{Key: "collection.ttl.seconds", Value: "0"}},
	},
		catalog.Partition{Name: "fiction", RowCount: 1200},
		catalog.Partition{Name: "poetry", RowCount: 30},
		catalog.Partition{Name: "reference", RowCount: 415},
	)
}
