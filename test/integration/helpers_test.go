// Package integration runs the console API end to end.
//
// Every scenario runs against the in-memory backend. The same scenarios run
// against PostgreSQL when a container runtime is available and
// SKIP_INTEGRATION is not "true".
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rhuss/vdbconsole/pkg/api"
	"github.com/rhuss/vdbconsole/pkg/auth"
	"github.com/rhuss/vdbconsole/pkg/auth/session"
	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/catalog/memory"
	"github.com/rhuss/vdbconsole/pkg/catalog/postgres"
	"github.com/rhuss/vdbconsole/pkg/console"
	"github.com/rhuss/vdbconsole/pkg/mcptools"
	"github.com/rhuss/vdbconsole/pkg/observability"
	"github.com/rhuss/vdbconsole/pkg/transport"
	transporthttp "github.com/rhuss/vdbconsole/pkg/transport/http"
)

// seeder is the part of a store the fixtures need.
type seeder interface {
	CreateCollection(ctx context.Context, c catalog.Collection) error
	CreatePartition(ctx context.Context, collection, name string) error
	Insert(ctx context.Context, collection, partition string, rows []catalog.Row) (int64, error)
}

// TestEnvironment is a console server wired the way cmd/vdbconsole wires it.
type TestEnvironment struct {
	Server *httptest.Server
	Conns  *console.Connections
}

// BaseURL returns the console server base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.Server.URL
}

// backendFunc creates a store for one test.
type backendFunc func(t *testing.T) (catalog.Dialer, seeder)

func memoryBackend(t *testing.T) (catalog.Dialer, seeder) {
	s := memory.New()
	return s.Dialer(), s
}

func postgresBackend(t *testing.T) (catalog.Dialer, seeder) {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL backend")
	}
	_, podmanErr := exec.LookPath("podman")
	_, dockerErr := exec.LookPath("docker")
	if podmanErr != nil && dockerErr != nil {
		t.Skip("no container runtime found, skipping PostgreSQL backend")
	}

	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("console_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}
	store, err := postgres.New(ctx, postgres.Config{DSN: dsn, MaxConns: 4, MigrateOnStart: true})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store.Dialer(), store
}

// forEachBackend runs fn once per backend with a fresh, seeded environment.
func forEachBackend(t *testing.T, fn func(t *testing.T, env *TestEnvironment)) {
	for name, backend := range map[string]backendFunc{
		"memory":   memoryBackend,
		"postgres": postgresBackend,
	} {
		t.Run(name, func(t *testing.T) {
			dialer, store := backend(t)
			seed(t, store)
			fn(t, newEnvironment(t, dialer, name))
		})
	}
}

// seed creates collection "books" with partitions fiction (3 rows) and
// poetry (1 row) next to _default.
func seed(t *testing.T, s seeder) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateCollection(ctx, catalog.Collection{
		Name: "books",
		Schema: &catalog.Schema{Fields: []catalog.Field{
			{Name: "id", DataType: "Int64", IsPrimaryKey: true, AutoID: true},
			{Name: "title", DataType: "VarChar"},
		}},
		Properties: []catalog.KeyValue{{Key: "collection.ttl.seconds", Value: "3600"}},
	}); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	rows := map[string]int{"fiction": 3, "poetry": 1}
	for _, name := range []string{"fiction", "poetry"} {
		if err := s.CreatePartition(ctx, "books", name); err != nil {
			t.Fatalf("CreatePartition(%s): %v", name, err)
		}
		batch := make([]catalog.Row, rows[name])
		for i := range batch {
			batch[i] = catalog.Row{"title": fmt.Sprintf("%s %d", name, i)}
		}
		if _, err := s.Insert(ctx, "books", name, batch); err != nil {
			t.Fatalf("Insert(%s): %v", name, err)
		}
	}
}

func newEnvironment(t *testing.T, dialer catalog.Dialer, backend string) *TestEnvironment {
	t.Helper()

	conns := console.NewConnections(observability.InstrumentDialer(dialer, backend), console.Config{
		Version: "integration",
		Backend: backend,
	})
	t.Cleanup(func() { conns.Close() })

	secret := make([]byte, session.MinSecretLength)
	if _, err := rand.Read(secret); err != nil {
		t.Fatal(err)
	}
	sessions, err := session.New(session.Config{Secret: secret})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	sessions.SetActive(func(id string) bool {
		_, err := conns.Get(id)
		return err == nil
	})

	adapter := transporthttp.NewAdapter(conns, sessions, transporthttp.DefaultConfig())
	adapter.Handle("/mcp", mcptools.New(conns, console.Options{}, "integration").Handler())

	chain := &auth.AuthChain{Authenticators: []auth.Authenticator{sessions}, DefaultDecision: auth.No}
	handler := transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		auth.Middleware(chain, nil, auth.DefaultBypassEndpoints),
		observability.MetricsMiddleware,
	)(adapter.Handler())

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &TestEnvironment{Server: srv, Conns: conns}
}

// --- HTTP helpers ---

// do sends a request with an optional JSON body and bearer token.
func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON checks the status and decodes the body into target.
func decodeJSON(t *testing.T, resp *http.Response, status int, target any) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, status, readBody(t, resp))
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}

// connect opens a connection and returns its session.
func connect(t *testing.T, env *TestEnvironment) api.ConnectResponse {
	t.Helper()
	var cr api.ConnectResponse
	decodeJSON(t, do(t, http.MethodPost, env.BaseURL()+"/v1/connect", "", api.ConnectRequest{Address: "local"}), http.StatusCreated, &cr)
	return cr
}

// snapshot mirrors the parts of console.Snapshot the tests read.
type snapshot struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Dialog   *console.Dialog `json:"dialog"`
	Messages []string        `json:"messages"`
	Grid     struct {
		Rows []struct {
			Key   string            `json:"key"`
			Cells map[string]string `json:"cells"`
		} `json:"rows"`
		Total       int      `json:"total"`
		CurrentPage int      `json:"current_page"`
		PageCount   int      `json:"page_count"`
		Selected    []string `json:"selected"`
	} `json:"grid"`
}

func (s snapshot) keys() []string {
	out := make([]string, len(s.Grid.Rows))
	for i, r := range s.Grid.Rows {
		out[i] = r.Key
	}
	return out
}

// bearerTransport adds a session token to every request.
type bearerTransport struct {
	base  http.RoundTripper
	token string
}

func (b *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}
