package grid

// ToolbarKind distinguishes toolbar buttons from the search box.
type ToolbarKind string

const (
	ToolbarButton ToolbarKind = "button"
	ToolbarSearch ToolbarKind = "search"
)

// ToolbarItem is an action offered above the grid. Whether it is enabled
// and what its tooltip says are derived from the current selection; the
// action itself is handled by the caller.
type ToolbarItem[R any] struct {
	ID    string
	Label string
	Icon  string
	Kind  ToolbarKind

	// Disabled reports whether the item is unavailable for the given
	// selection. A nil predicate means always enabled.
	Disabled func(selected []R) bool

	// Tooltip explains the current state to the user. Optional.
	Tooltip func(selected []R) string
}

// ToolbarState is a toolbar item evaluated against a selection.
type ToolbarState struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Icon     string      `json:"icon,omitempty"`
	Kind     ToolbarKind `json:"kind"`
	Disabled bool        `json:"disabled"`
	Tooltip  string      `json:"tooltip,omitempty"`
}

func (t ToolbarItem[R]) evaluate(selected []R) ToolbarState {
	kind := t.Kind
	if kind == "" {
		kind = ToolbarButton
	}
	st := ToolbarState{
		ID:    t.ID,
		Label: t.Label,
		Icon:  t.Icon,
		Kind:  kind,
	}
	if t.Disabled != nil {
		st.Disabled = t.Disabled(selected)
	}
	if t.Tooltip != nil {
		st.Tooltip = t.Tooltip(selected)
	}
	return st
}
