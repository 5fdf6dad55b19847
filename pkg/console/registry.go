package console

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/rhuss/vdbconsole/pkg/observability"
)

// Registry holds the open views of every connection. Each connection keeps
// at most max views; opening one more evicts that connection's least
// recently used view. It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	max   int // 0 = unlimited
	conns map[string]*connViews
}

type connViews struct {
	views map[string]*list.Element
	lru   *list.List // front = most recently used
}

// NewRegistry creates a registry bounded to max views per connection.
func NewRegistry(max int) *Registry {
	return &Registry{max: max, conns: make(map[string]*connViews)}
}

// Add registers v for connID. It returns the id of the view evicted to make
// room, or "".
func (r *Registry) Add(connID string, v View) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cv, ok := r.conns[connID]
	if !ok {
		cv = &connViews{views: make(map[string]*list.Element), lru: list.New()}
		r.conns[connID] = cv
	}
	if elem, exists := cv.views[v.ID()]; exists {
		elem.Value = v
		cv.lru.MoveToFront(elem)
		return ""
	}

	var evicted string
	if r.max > 0 && cv.lru.Len() >= r.max {
		oldest := cv.lru.Back()
		evicted = oldest.Value.(View).ID()
		cv.lru.Remove(oldest)
		delete(cv.views, evicted)
		observability.ViewsActive.Dec()
	}
	cv.views[v.ID()] = cv.lru.PushFront(v)
	observability.ViewsActive.Inc()
	return evicted
}

// Get returns the view and marks it recently used. Views of other
// connections are not found.
func (r *Registry) Get(connID, id string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cv, ok := r.conns[connID]
	if !ok {
		return nil, fmt.Errorf("view %q: %w", id, ErrViewNotFound)
	}
	elem, ok := cv.views[id]
	if !ok {
		return nil, fmt.Errorf("view %q: %w", id, ErrViewNotFound)
	}
	cv.lru.MoveToFront(elem)
	return elem.Value.(View), nil
}

// Remove deletes a view.
func (r *Registry) Remove(connID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cv, ok := r.conns[connID]
	if !ok {
		return fmt.Errorf("view %q: %w", id, ErrViewNotFound)
	}
	elem, ok := cv.views[id]
	if !ok {
		return fmt.Errorf("view %q: %w", id, ErrViewNotFound)
	}
	cv.lru.Remove(elem)
	delete(cv.views, id)
	observability.ViewsActive.Dec()
	return nil
}

// List returns the view ids of connID, most recently used first.
func (r *Registry) List(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cv, ok := r.conns[connID]
	if !ok {
		return []string{}
	}
	ids := make([]string, 0, cv.lru.Len())
	for e := cv.lru.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(View).ID())
	}
	return ids
}

// Len returns the number of views of connID.
func (r *Registry) Len(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cv, ok := r.conns[connID]; ok {
		return cv.lru.Len()
	}
	return 0
}

// Drop removes every view of connID and returns how many there were.
func (r *Registry) Drop(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cv, ok := r.conns[connID]
	if !ok {
		return 0
	}
	n := cv.lru.Len()
	delete(r.conns, connID)
	observability.ViewsActive.Sub(float64(n))
	return n
}
