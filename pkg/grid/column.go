package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayout is the layout date cells are rendered with.
const DefaultDateLayout = "2006-01-02 15:04:05"

// ValueKind is the closed set of cell value variants.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueDate
	ValueCustom
)

// String returns the configuration name of the value kind.
func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueDate:
		return "date"
	case ValueCustom:
		return "custom"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Column describes how one field of a record is displayed and sorted.
// Columns are supplied by the caller and do not change during the lifetime
// of a controller.
type Column[R any] struct {
	// ID names the field. It is the key of the rendered cell and the value
	// passed to sort operations.
	ID string

	// Label is the header text.
	Label string

	// Sortable enables sorting by this column.
	Sortable bool

	// SortKind selects the comparison used when sorting.
	SortKind SortKind

	// Value reads the field from a record.
	Value func(R) any

	// Kind selects the cell renderer.
	Kind ValueKind

	// Render formats a ValueCustom cell.
	Render func(R) string

	// Copyable marks cells that the view offers a copy affordance for.
	Copyable bool
}

// ColumnHeader is the view-facing description of a column.
type ColumnHeader struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
	Kind     string `json:"kind"`
	Copyable bool   `json:"copyable,omitempty"`
}

// CellRenderer turns a record into the display text of one cell.
type CellRenderer[R any] interface {
	Render(r R) string
}

type stringRenderer[R any] struct{ value func(R) any }

func (s stringRenderer[R]) Render(r R) string { return asString(s.value(r)) }

type numberRenderer[R any] struct{ value func(R) any }

func (n numberRenderer[R]) Render(r R) string {
	v := n.value(r)
	f, ok := asNumber(v)
	if !ok {
		return asString(v)
	}
	return FormatNumber(f)
}

type dateRenderer[R any] struct {
	value  func(R) any
	layout string
}

func (d dateRenderer[R]) Render(r R) string {
	v := d.value(r)
	ms, ok := asTimestamp(v)
	if !ok {
		return asString(v)
	}
	return time.UnixMilli(ms).Local().Format(d.layout)
}

type customRenderer[R any] struct{ render func(R) string }

func (c customRenderer[R]) Render(r R) string { return c.render(r) }

// newRenderer resolves the renderer for col.
func newRenderer[R any](col Column[R], dateLayout string) (CellRenderer[R], error) {
	value := col.Value
	if value == nil {
		value = func(R) any { return nil }
	}
	switch col.Kind {
	case ValueString:
		return stringRenderer[R]{value: value}, nil
	case ValueNumber:
		return numberRenderer[R]{value: value}, nil
	case ValueDate:
		return dateRenderer[R]{value: value, layout: dateLayout}, nil
	case ValueCustom:
		if col.Render == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingRenderer, col.ID)
		}
		return customRenderer[R]{render: col.Render}, nil
	default:
		return nil, fmt.Errorf("column %q: unknown value kind %d", col.ID, col.Kind)
	}
}

// FormatNumber renders f with comma-grouped thousands. Integral values have
// no fraction; others keep up to two decimals.
func FormatNumber(f float64) string {
	if math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	neg := f < 0
	if neg {
		f = -f
	}

	var s string
	if f == math.Trunc(f) {
		s = strconv.FormatFloat(f, 'f', 0, 64)
	} else {
		s = strings.TrimRight(strconv.FormatFloat(f, 'f', 2, 64), "0")
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	// Values that round to zero carry no sign.
	if neg && strings.Trim(s, "0.") != "" {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
