package transport

import (
	"context"
	"sync"
)

// InFlightRegistry tracks backend calls still running on behalf of a view,
// so that closing the view or its connection cancels them.
//
// All methods are safe for concurrent access.
type InFlightRegistry struct {
	mu      sync.Mutex
	next    uint64
	entries map[string]map[uint64]context.CancelFunc
}

// NewInFlightRegistry creates a new empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{
		entries: make(map[string]map[uint64]context.CancelFunc),
	}
}

// Track derives a cancellable context for a call made on behalf of key.
// The returned done function must be called when the call returns.
func (r *InFlightRegistry) Track(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.next++
	n := r.next
	calls, ok := r.entries[key]
	if !ok {
		calls = make(map[uint64]context.CancelFunc)
		r.entries[key] = calls
	}
	calls[n] = cancel
	r.mu.Unlock()

	return ctx, func() {
		r.mu.Lock()
		delete(r.entries[key], n)
		if len(r.entries[key]) == 0 {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		cancel()
	}
}

// Cancel cancels every call tracked for key and returns how many there were.
func (r *InFlightRegistry) Cancel(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := r.entries[key]
	for _, cancel := range calls {
		cancel()
	}
	delete(r.entries, key)
	return len(calls)
}

// Len returns the number of calls tracked for key.
func (r *InFlightRegistry) Len(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries[key])
}
