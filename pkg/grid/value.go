package grid

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// asString returns the display form used by string sorting and rendering.
// A nil value is the empty string.
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// asNumber converts v to a float64. The second result is false for values
// that have no numeric meaning: nil, bools, NaN and unparseable strings.
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// integer is an exact integer value of any Go integer kind.
type integer struct {
	neg bool
	abs uint64
}

func signed(n int64) integer {
	if n < 0 {
		// -(n+1) keeps math.MinInt64 in range.
		return integer{neg: true, abs: uint64(-(n + 1)) + 1}
	}
	return integer{abs: uint64(n)}
}

func (i integer) compare(o integer) int {
	switch {
	case i.neg && !o.neg:
		return -1
	case !i.neg && o.neg:
		return 1
	case i.neg:
		return cmp.Compare(o.abs, i.abs)
	default:
		return cmp.Compare(i.abs, o.abs)
	}
}

// asInteger reads v exactly when it holds an integer kind or an integral
// json.Number. Floats and strings are left to asNumber.
func asInteger(v any) (integer, bool) {
	switch n := v.(type) {
	case int:
		return signed(int64(n)), true
	case int8:
		return signed(int64(n)), true
	case int16:
		return signed(int64(n)), true
	case int32:
		return signed(int64(n)), true
	case int64:
		return signed(n), true
	case uint:
		return integer{abs: uint64(n)}, true
	case uint8:
		return integer{abs: uint64(n)}, true
	case uint16:
		return integer{abs: uint64(n)}, true
	case uint32:
		return integer{abs: uint64(n)}, true
	case uint64:
		return integer{abs: n}, true
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return signed(i), true
		}
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return integer{abs: u}, true
		}
	}
	return integer{}, false
}

// asTimestamp converts v to epoch milliseconds. Integers and numeric
// strings are taken as epoch milliseconds already; other strings must be
// RFC 3339.
func asTimestamp(v any) (int64, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case string:
		s := strings.TrimSpace(t)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ms, true
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return parsed.UnixMilli(), true
		}
		return 0, false
	}
	f, ok := asNumber(v)
	if !ok || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
