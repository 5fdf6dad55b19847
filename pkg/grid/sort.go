package grid

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKind selects how a column's values are compared.
type SortKind int

const (
	// KindNone marks a column without a comparison; it always compares equal.
	KindNone SortKind = iota
	// KindString compares the string form of values, case-sensitively.
	KindString
	// KindNumber compares values numerically.
	KindNumber
	// KindDate compares values by their millisecond timestamp.
	KindDate
)

// String returns the configuration name of the kind.
func (k SortKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Order is a sort direction.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// ParseOrder converts "asc"/"desc" (any case) to an Order. Anything else is
// reported as not ok.
func ParseOrder(s string) (Order, bool) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case Ascending:
		return Ascending, true
	case Descending:
		return Descending, true
	}
	return "", false
}

// SortState is the active sort of a grid. An empty OrderBy means unsorted.
type SortState struct {
	OrderBy string `json:"order_by"`
	Order   Order  `json:"order"`
}

// IsSorted reports whether the state names a column.
func (s SortState) IsSorted() bool {
	return s.OrderBy != ""
}

// CompareValues compares a and b under kind and returns -1, 0 or 1.
//
// Values that cannot be read as a number (for KindNumber) or as a timestamp
// (for KindDate) sort before every value that can, and compare equal to each
// other so that a stable sort keeps their original order.
func CompareValues(a, b any, kind SortKind) int {
	switch kind {
	case KindString:
		return strings.Compare(asString(a), asString(b))
	case KindNumber:
		if ia, ok := asInteger(a); ok {
			if ib, ok := asInteger(b); ok {
				return ia.compare(ib)
			}
		}
		na, okA := asNumber(a)
		nb, okB := asNumber(b)
		if c := compareValidity(okA, okB); c != 0 || !okA {
			return c
		}
		return cmp.Compare(na, nb)
	case KindDate:
		ta, okA := asTimestamp(a)
		tb, okB := asTimestamp(b)
		if c := compareValidity(okA, okB); c != 0 || !okA {
			return c
		}
		return cmp.Compare(ta, tb)
	default:
		return 0
	}
}

// compareValidity orders invalid values before valid ones.
func compareValidity(okA, okB bool) int {
	switch {
	case okA == okB:
		return 0
	case !okA:
		return -1
	default:
		return 1
	}
}

// Compare compares two records by the field col reads, using col.SortKind.
func Compare[R any](a, b R, col Column[R]) int {
	if col.Value == nil {
		return 0
	}
	return CompareValues(col.Value(a), col.Value(b), col.SortKind)
}

// SortRecords returns a sorted copy of records. The sort is stable: records
// with equal keys keep their input order in both directions, because
// Descending negates the comparison instead of reversing the result.
func SortRecords[R any](records []R, col Column[R], order Order) []R {
	out := slices.Clone(records)
	if col.Value == nil || col.SortKind == KindNone {
		return out
	}

	// Read each field once; accessors may format or parse.
	keys := make([]any, len(out))
	for i, r := range out {
		keys[i] = col.Value(r)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}

	sign := 1
	if order == Descending {
		sign = -1
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		return sign * CompareValues(keys[i], keys[j], col.SortKind)
	})

	sorted := make([]R, len(out))
	for pos, i := range idx {
		sorted[pos] = out[i]
	}
	return sorted
}
