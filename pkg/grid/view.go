package grid

// Row is one displayed record with its rendered cells.
type Row[R any] struct {
	Key      string            `json:"key"`
	Record   R                 `json:"record"`
	Cells    map[string]string `json:"cells"`
	Selected bool              `json:"selected"`
}

// ViewModel is everything a presentation layer needs to draw the grid for
// the current state. It is a snapshot and shares no memory with the
// controller.
type ViewModel[R any] struct {
	Rows        []Row[R]       `json:"rows"`
	Total       int            `json:"total"`
	CurrentPage int            `json:"current_page"`
	PageSize    int            `json:"page_size"`
	PageCount   int            `json:"page_count"`
	OrderBy     string         `json:"order_by,omitempty"`
	Order       Order          `json:"order,omitempty"`
	Selected    []string       `json:"selected"`
	Columns     []ColumnHeader `json:"columns"`
	Toolbar     []ToolbarState `json:"toolbar,omitempty"`
}
