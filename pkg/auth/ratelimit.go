package auth

import (
	"context"
	"net"
	"sync"
	"time"
)

// RateLimiter checks whether an authenticated request should be allowed.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// window is a fixed-window counter keyed by an arbitrary string.
type window struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

type counter struct {
	count    int
	windowAt time.Time
}

func newWindow(limit int, period time.Duration) *window {
	return &window{
		limit:    limit,
		period:   period,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

func (w *window) allow(key string) error {
	if w.limit <= 0 {
		return nil // no limit
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	c, ok := w.counters[key]
	if !ok || now.Sub(c.windowAt) >= w.period {
		w.counters[key] = &counter{count: 1, windowAt: now}
		w.sweep(now)
		return nil
	}

	c.count++
	if c.count > w.limit {
		return ErrTooManyRequests
	}
	return nil
}

// sweep drops expired counters. Must be called with mu held.
func (w *window) sweep(now time.Time) {
	for k, c := range w.counters {
		if now.Sub(c.windowAt) >= w.period {
			delete(w.counters, k)
		}
	}
}

// InProcessLimiter limits requests per session subject per minute.
type InProcessLimiter struct {
	w *window
}

// NewInProcessLimiter creates a limiter allowing rpm requests per minute
// per subject. rpm <= 0 disables limiting.
func NewInProcessLimiter(rpm int) *InProcessLimiter {
	return &InProcessLimiter{w: newWindow(rpm, time.Minute)}
}

// Allow checks if the request is within the rate limit.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	return l.w.allow(identity.Subject)
}

// ConnectLimiter limits connect attempts per remote host, which keeps
// callers from probing backend credentials.
type ConnectLimiter struct {
	w *window
}

// NewConnectLimiter allows attempts connects per host within period.
// attempts <= 0 disables limiting.
func NewConnectLimiter(attempts int, period time.Duration) *ConnectLimiter {
	return &ConnectLimiter{w: newWindow(attempts, period)}
}

// Allow records an attempt from remoteAddr ("host:port" or bare host).
func (l *ConnectLimiter) Allow(remoteAddr string) error {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return l.w.allow(host)
}
