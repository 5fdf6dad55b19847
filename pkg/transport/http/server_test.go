package http

import (
	"context"
	"net"
	gohttp "net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rhuss/vdbconsole/pkg/catalog/memory"
	"github.com/rhuss/vdbconsole/pkg/console"
	"github.com/rhuss/vdbconsole/pkg/transport"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	conns := console.NewConnections(memory.New().Dialer(), console.Config{Version: "test", Backend: "memory"})
	t.Cleanup(func() { conns.Close() })
	return NewAdapter(conns, nil, DefaultConfig())
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	return ln
}

func TestServerStartsAndAcceptsRequests(t *testing.T) {
	srv := NewServer(newTestAdapter(t), WithAddr("127.0.0.1:0"))

	ln := listen(t)
	addr := ln.Addr().String()
	go srv.ServeOn(ln)
	time.Sleep(50 * time.Millisecond)

	resp, err := gohttp.Get("http://" + addr + "/v1/version")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, gohttp.StatusOK)
	}
	if resp.Header.Get(transport.RequestIDHeader) == "" {
		t.Error("default middleware did not set X-Request-ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func TestServerRunsExtraMiddleware(t *testing.T) {
	var hits atomic.Int64
	count := func(next gohttp.Handler) gohttp.Handler {
		return gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
			hits.Add(1)
			next.ServeHTTP(w, r)
		})
	}
	srv := NewServer(newTestAdapter(t), WithMiddleware(count))

	ln := listen(t)
	addr := ln.Addr().String()
	go srv.ServeOn(ln)
	time.Sleep(50 * time.Millisecond)
	defer srv.Shutdown(context.Background())

	resp, err := gohttp.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if hits.Load() != 1 {
		t.Errorf("middleware hits = %d, want 1", hits.Load())
	}
}

func TestServerRunStopsOnCancel(t *testing.T) {
	adapter := newTestAdapter(t)
	srv := NewServer(adapter, WithAddr("127.0.0.1:0"), WithShutdownTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil after graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if adapter.ready.Load() {
		t.Error("adapter still ready after shutdown")
	}
}

func TestServerFunctionalOptions(t *testing.T) {
	srv := NewServer(newTestAdapter(t),
		WithAddr(":9999"),
		WithTimeouts(5*time.Second, 7*time.Second),
		WithShutdownTimeout(10*time.Second),
	)

	if srv.config.Addr != ":9999" {
		t.Errorf("addr = %q, want %q", srv.config.Addr, ":9999")
	}
	if srv.httpServer.ReadTimeout != 5*time.Second || srv.httpServer.WriteTimeout != 7*time.Second {
		t.Errorf("timeouts = %v/%v", srv.httpServer.ReadTimeout, srv.httpServer.WriteTimeout)
	}
	if srv.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want %v", srv.config.ShutdownTimeout, 10*time.Second)
	}
}
