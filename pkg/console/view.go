package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/debug"
	"github.com/rhuss/vdbconsole/pkg/grid"
	"github.com/rhuss/vdbconsole/pkg/observability"
)

// View is a grid bound to a catalog source.
type View interface {
	ID() string
	Kind() string

	// Refresh refetches the records from the backend.
	Refresh(ctx context.Context) error

	// Search sets the view's search text.
	Search(ctx context.Context, text string) error

	ToggleSort(field string) bool
	SetSort(field string, order grid.Order) bool
	SetPage(page int) int
	SetPageSize(n int) error

	// Select replaces the selection with the rows whose keys are given and
	// returns the keys actually selected.
	Select(keys []string) []string

	// Trigger runs a toolbar action. Without params it opens the action's
	// dialog; with params it performs the action.
	Trigger(ctx context.Context, action string, params map[string]any) error

	// Snapshot returns the current state and drains pending messages.
	Snapshot() Snapshot
}

// Snapshot is the serializable state of a view.
type Snapshot struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Grid     any      `json:"grid"`
	Search   string   `json:"search,omitempty"`
	Loading  bool     `json:"loading"`
	Dialog   *Dialog  `json:"dialog,omitempty"`
	Messages []string `json:"messages,omitempty"`
	Label    string   `json:"label"`
}

// Options tune the grids of new views.
type Options struct {
	// PageSize is the initial page size. Zero selects grid.DefaultPageSize.
	PageSize int

	// DateLayout formats date cells. Empty selects grid.DefaultDateLayout.
	DateLayout string

	// RetainSelection keeps selected partitions that survive a refresh.
	RetainSelection bool

	Logger *slog.Logger
}

// gridView carries the state shared by all views. Methods lock mu; the
// concrete views take the same lock around backend calls.
type gridView[R any] struct {
	mu sync.Mutex

	id       string
	kind     string
	ctrl     *grid.Controller[R]
	inbox    *Inbox
	loading  bool
	search   string
	singular string
	plural   string
}

func (v *gridView[R]) ID() string { return v.id }
func (v *gridView[R]) Kind() string { return v.kind }

func (v *gridView[R]) ToggleSort(field string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctrl.OnSortToggle(field)
}

func (v *gridView[R]) SetSort(field string, order grid.Order) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctrl.SetSort(field, order)
}

// SetPage moves to page and clears the selection.
func (v *gridView[R]) SetPage(page int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctrl.ClearSelection()
	return v.ctrl.SetPage(page)
}

func (v *gridView[R]) SetPageSize(n int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctrl.SetPageSize(n)
}

func (v *gridView[R]) Select(keys []string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctrl.SelectKeys(keys)
	return v.ctrl.View().Selected
}

func (v *gridView[R]) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	vm := v.ctrl.View()
	return Snapshot{
		ID:       v.id,
		Kind:     v.kind,
		Grid:     vm,
		Search:   v.search,
		Loading:  v.loading,
		Dialog:   v.inbox.Pending(),
		Messages: v.inbox.Drain(),
		Label:    rowsLabel(vm.CurrentPage, vm.PageSize, len(vm.Rows), vm.Total, v.singular, v.plural),
	}
}

// check reports whether action may run on the current selection. Must be
// called with mu held.
func (v *gridView[R]) check(action string) error {
	ok, err := v.ctrl.Enabled(action)
	if errors.Is(err, grid.ErrUnknownToolbarItem) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrActionDisabled, action)
	}
	return nil
}

// record counts an action outcome. opened marks a trigger that only opened
// the action's dialog.
func (v *gridView[R]) record(action string, opened bool, err error) {
	status := "ok"
	switch {
	case opened && err == nil:
		status = "dialog"
	case errors.Is(err, ErrActionDisabled):
		status = "disabled"
	case err != nil:
		status = "error"
	}
	observability.GridActionsTotal.WithLabelValues(v.kind, action, status).Inc()
	if err != nil {
		debug.Log("console", "action failed", "view", v.id, "action", action, "error", err)
	}
}

// scoped binds ctx to the database a connection targets.
func scoped(ctx context.Context, database string) context.Context {
	if database == "" {
		return ctx
	}
	return catalog.ContextWithDatabase(ctx, database)
}

func gridConfig[R any](opts Options) grid.Config[R] {
	return grid.Config[R]{
		PageSize:   opts.PageSize,
		DateLayout: opts.DateLayout,
		Logger:     opts.Logger,
	}
}

// confirmed reports whether params carry confirm=true.
func confirmed(params map[string]any) bool {
	c, _ := params["confirm"].(bool)
	return c
}

// stringParam returns params[key] as a non-empty string.
func stringParam(params map[string]any, key string) (string, error) {
	s, ok := params[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
	}
	return s, nil
}
