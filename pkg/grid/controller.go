package grid

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/rhuss/vdbconsole/pkg/debug"
)

// Config describes a grid. Key and Columns are required.
type Config[R any] struct {
	// Key returns the primary key of a record. Selection and row identity
	// are decided by it.
	Key func(R) string

	Columns []Column[R]

	// PageSize defaults to DefaultPageSize.
	PageSize int

	SelectMode SelectMode

	// RetainSelection keeps selected keys that are still present when the
	// record sequence is replaced. By default replacing the sequence clears
	// the selection.
	RetainSelection bool

	// Sort is the initial sort. Order defaults to Ascending.
	Sort SortState

	Toolbar []ToolbarItem[R]

	// DateLayout defaults to DefaultDateLayout.
	DateLayout string

	// Logger receives state transitions at debug level. When nil, the
	// "grid" debug category is used.
	Logger *slog.Logger
}

// Controller owns the state of one grid: the record sequence, the sort,
// the pagination and the selection. Every mutation is followed by the
// derivation of the displayed rows, so View always reflects the state.
type Controller[R any] struct {
	key             func(R) string
	columns         []Column[R]
	byID            map[string]int
	renderers       []CellRenderer[R]
	toolbar         []ToolbarItem[R]
	retainSelection bool
	logger          *slog.Logger

	records []R
	sorted  []R
	sort    SortState
	paging  Pagination
	sel     *Selection[R]
}

// NewController validates cfg and returns a controller with no records.
func NewController[R any](cfg Config[R]) (*Controller[R], error) {
	if cfg.Key == nil {
		return nil, ErrNoKeyFunc
	}
	if len(cfg.Columns) == 0 {
		return nil, ErrNoColumns
	}

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	paging, err := NewPagination(pageSize)
	if err != nil {
		return nil, err
	}

	layout := cfg.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}

	c := &Controller[R]{
		key:             cfg.Key,
		columns:         slices.Clone(cfg.Columns),
		byID:            make(map[string]int, len(cfg.Columns)),
		renderers:       make([]CellRenderer[R], len(cfg.Columns)),
		retainSelection: cfg.RetainSelection,
		logger:          cfg.Logger,
		paging:          paging,
		sel:             NewSelection(cfg.SelectMode, cfg.Key),
	}

	for i, col := range c.columns {
		if col.ID == "" {
			return nil, fmt.Errorf("column %d: empty id", i)
		}
		if _, dup := c.byID[col.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col.ID)
		}
		if col.Sortable && (col.SortKind == KindNone || col.Value == nil) {
			return nil, fmt.Errorf("%w: %q is sortable without a sort kind and value", ErrInvalidSortColumn, col.ID)
		}
		r, err := newRenderer(col, layout)
		if err != nil {
			return nil, err
		}
		c.byID[col.ID] = i
		c.renderers[i] = r
	}

	seen := make(map[string]bool, len(cfg.Toolbar))
	for _, item := range cfg.Toolbar {
		if item.ID == "" || seen[item.ID] {
			return nil, fmt.Errorf("toolbar item %q: empty or duplicate id", item.ID)
		}
		seen[item.ID] = true
	}
	c.toolbar = slices.Clone(cfg.Toolbar)

	if cfg.Sort.IsSorted() {
		order := cfg.Sort.Order
		if order == "" {
			order = Ascending
		}
		if !c.sortable(cfg.Sort.OrderBy) || !validOrder(order) {
			return nil, fmt.Errorf("%w: %q %q", ErrInvalidSortColumn, cfg.Sort.OrderBy, cfg.Sort.Order)
		}
		c.sort = SortState{OrderBy: cfg.Sort.OrderBy, Order: order}
	}

	return c, nil
}

// SetRecords replaces the record sequence. The sequence is re-sorted, the
// current page is pulled back into range and the selection is cleared, or
// narrowed to surviving keys when RetainSelection is set.
func (c *Controller[R]) SetRecords(seq []R) {
	c.records = slices.Clone(seq)
	c.resort()
	c.paging.Clamp(len(c.sorted))

	if c.retainSelection {
		c.sel.Retain(c.records)
	} else {
		c.sel.Clear()
	}
	c.debugLog("records replaced", "total", len(c.records), "page", c.paging.CurrentPage(), "selected", c.sel.Len())
}

// OnSortToggle handles a click on a column header. Clicking the active
// column flips the direction; clicking another sortable column sorts it
// ascending. Unknown and non-sortable fields are ignored and false is
// returned.
func (c *Controller[R]) OnSortToggle(field string) bool {
	if !c.sortable(field) {
		return false
	}
	order := Ascending
	if c.sort.OrderBy == field && c.sort.Order == Ascending {
		order = Descending
	}
	c.applySort(SortState{OrderBy: field, Order: order})
	return true
}

// SetSort sets the sort explicitly. An empty field restores the sequence
// order. Unknown or non-sortable fields and unknown orders are ignored.
func (c *Controller[R]) SetSort(field string, order Order) bool {
	if field == "" {
		c.applySort(SortState{})
		return true
	}
	if !c.sortable(field) || !validOrder(order) {
		return false
	}
	c.applySort(SortState{OrderBy: field, Order: order})
	return true
}

// Sort returns the active sort.
func (c *Controller[R]) Sort() SortState { return c.sort }

// SetPage moves to page, clamped into range, and returns the page shown.
func (c *Controller[R]) SetPage(page int) int {
	got := c.paging.SetPage(page, len(c.sorted))
	c.debugLog("page changed", "requested", page, "page", got)
	return got
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller[R]) SetPageSize(n int) error {
	if err := c.paging.SetPageSize(n); err != nil {
		return fmt.Errorf("page size %d: %w", n, err)
	}
	c.debugLog("page size changed", "page_size", n)
	return nil
}

// Pagination returns the pagination state.
func (c *Controller[R]) Pagination() Pagination { return c.paging }

// SetSelection replaces the selection. Records whose key is not part of the
// current sequence are dropped first, then the selection mode applies.
// Selected records are the sequence's own instances for their keys.
func (c *Controller[R]) SetSelection(records []R) []R {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = c.key(r)
	}
	return c.SelectKeys(keys)
}

// SelectKeys is SetSelection by primary key.
func (c *Controller[R]) SelectKeys(keys []string) []R {
	index := make(map[string]R, len(c.records))
	for _, r := range c.records {
		index[c.key(r)] = r
	}
	picked := make([]R, 0, len(keys))
	for _, k := range keys {
		if r, ok := index[k]; ok {
			picked = append(picked, r)
		}
	}
	got := c.sel.Select(picked)
	c.debugLog("selection changed", "requested", len(keys), "selected", len(got))
	return got
}

// ClearSelection empties the selection.
func (c *Controller[R]) ClearSelection() {
	c.sel.Clear()
}

// Selected returns the selected records in selection order.
func (c *Controller[R]) Selected() []R {
	return c.sel.Records()
}

// Enabled evaluates the toolbar item against the current selection.
func (c *Controller[R]) Enabled(itemID string) (bool, error) {
	for _, item := range c.toolbar {
		if item.ID == itemID {
			return !item.evaluate(c.sel.Records()).Disabled, nil
		}
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownToolbarItem, itemID)
}

// Records returns the record sequence in display order.
func (c *Controller[R]) Records() []R {
	return slices.Clone(c.sorted)
}

// Len returns the number of records.
func (c *Controller[R]) Len() int { return len(c.sorted) }

// Column returns the column with id.
func (c *Controller[R]) Column(id string) (Column[R], bool) {
	i, ok := c.byID[id]
	if !ok {
		return Column[R]{}, false
	}
	return c.columns[i], true
}

// View derives the displayed page from the current state.
func (c *Controller[R]) View() ViewModel[R] {
	win := Derive(c.paging, c.sorted)
	rows := make([]Row[R], len(win.Rows))
	for i, r := range win.Rows {
		cells := make(map[string]string, len(c.columns))
		for j, col := range c.columns {
			cells[col.ID] = c.renderers[j].Render(r)
		}
		key := c.key(r)
		rows[i] = Row[R]{
			Key:      key,
			Record:   r,
			Cells:    cells,
			Selected: c.sel.Has(key),
		}
	}

	headers := make([]ColumnHeader, len(c.columns))
	for i, col := range c.columns {
		headers[i] = ColumnHeader{
			ID:       col.ID,
			Label:    col.Label,
			Sortable: col.Sortable,
			Kind:     col.Kind.String(),
			Copyable: col.Copyable,
		}
	}

	selected := c.sel.Records()
	var toolbar []ToolbarState
	for _, item := range c.toolbar {
		toolbar = append(toolbar, item.evaluate(selected))
	}

	return ViewModel[R]{
		Rows:        rows,
		Total:       win.Total,
		CurrentPage: c.paging.CurrentPage(),
		PageSize:    c.paging.PageSize(),
		PageCount:   c.paging.PageCount(win.Total),
		OrderBy:     c.sort.OrderBy,
		Order:       c.sort.Order,
		Selected:    c.sel.Keys(),
		Columns:     headers,
		Toolbar:     toolbar,
	}
}

func (c *Controller[R]) applySort(s SortState) {
	c.sort = s
	c.resort()
	c.paging.Clamp(len(c.sorted))
	c.debugLog("sort changed", "order_by", s.OrderBy, "order", s.Order)
}

func (c *Controller[R]) resort() {
	if !c.sort.IsSorted() {
		c.sorted = slices.Clone(c.records)
		return
	}
	col := c.columns[c.byID[c.sort.OrderBy]]
	c.sorted = SortRecords(c.records, col, c.sort.Order)
}

func (c *Controller[R]) sortable(field string) bool {
	i, ok := c.byID[field]
	return ok && c.columns[i].Sortable
}

func (c *Controller[R]) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
		return
	}
	debug.Log("grid", msg, args...)
}

func validOrder(o Order) bool {
	return o == Ascending || o == Descending
}
