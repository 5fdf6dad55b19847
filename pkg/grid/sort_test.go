package grid

import (
	"encoding/json"
	"math"
	"slices"
	"testing"
	"time"
)

type item struct {
	ID    string
	Name  string
	Count any
	When  any
}

func itemKey(i item) string { return i.ID }

var countCol = Column[item]{
	ID:       "count",
	Sortable: true,
	SortKind: KindNumber,
	Value:    func(i item) any { return i.Count },
	Kind:     ValueNumber,
}

var nameCol = Column[item]{
	ID:       "name",
	Sortable: true,
	SortKind: KindString,
	Value:    func(i item) any { return i.Name },
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestCompareValues(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b any
		kind SortKind
		want int
	}{
		{"string less", "apple", "banana", KindString, -1},
		{"string case sensitive", "B", "a", KindString, -1},
		{"string equal", "x", "x", KindString, 0},
		{"nil is empty string", nil, "a", KindString, -1},
		{"number ints", 5, 20, KindNumber, -1},
		{"number mixed types", int64(7), 6.5, KindNumber, 1},
		{"number numeric string", " 12 ", 9, KindNumber, 1},
		{"number json.Number", json.Number("3"), uint8(3), KindNumber, 0},
		{"number int64 above 2^53", int64(1<<53 + 1), int64(1 << 53), KindNumber, 1},
		{"number uint64 above 2^63", uint64(1<<63 + 1), uint64(1 << 63), KindNumber, 1},
		{"number uint64 vs negative int64", uint64(1 << 63), int64(math.MinInt64), KindNumber, 1},
		{"number min int64 vs int64", int64(math.MinInt64), int64(math.MinInt64 + 1), KindNumber, -1},
		{"number negatives", -3, int8(-2), KindNumber, -1},
		{"number large json.Number", json.Number("9007199254740993"), int64(1 << 53), KindNumber, 1},
		{"non-numeric before numeric", "abc", -100, KindNumber, -1},
		{"numeric after non-numeric", 0, nil, KindNumber, 1},
		{"two non-numerics equal", "abc", true, KindNumber, 0},
		{"date time values", now, now.Add(time.Second), KindDate, -1},
		{"date epoch ms vs time", now.UnixMilli(), now, KindDate, 0},
		{"date rfc3339 string", "2024-05-01T12:00:00Z", now.Add(-time.Hour), KindDate, 1},
		{"date numeric string", "1000", int64(999), KindDate, 1},
		{"date unparseable first", "yesterday", int64(0), KindDate, -1},
		{"date zero time unparseable", time.Time{}, int64(1), KindDate, -1},
		{"none always equal", 1, 2, KindNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareValues(tt.a, tt.b, tt.kind); got != tt.want {
				t.Errorf("CompareValues(%v, %v, %s) = %d, want %d", tt.a, tt.b, tt.kind, got, tt.want)
			}
		})
	}
}

func TestSortRecords_NumberDescending(t *testing.T) {
	in := []item{{ID: "a", Count: 5}, {ID: "b", Count: 1}, {ID: "c", Count: 20}}
	got := SortRecords(in, countCol, Descending)

	var counts []any
	for _, it := range got {
		counts = append(counts, it.Count)
	}
	if !slices.Equal(ids(got), []string{"c", "a", "b"}) {
		t.Errorf("order = %v, want [20 5 1]", counts)
	}
}

func TestSortRecords_DoesNotMutateInput(t *testing.T) {
	in := []item{{ID: "a", Count: 3}, {ID: "b", Count: 1}}
	_ = SortRecords(in, countCol, Ascending)
	if !slices.Equal(ids(in), []string{"a", "b"}) {
		t.Errorf("input reordered to %v", ids(in))
	}
}

func TestSortRecords_StableTies(t *testing.T) {
	in := []item{
		{ID: "1", Count: 2},
		{ID: "2", Count: 1},
		{ID: "3", Count: 2},
		{ID: "4", Count: 1},
	}
	asc := SortRecords(in, countCol, Ascending)
	if want := []string{"2", "4", "1", "3"}; !slices.Equal(ids(asc), want) {
		t.Errorf("asc = %v, want %v", ids(asc), want)
	}
	desc := SortRecords(in, countCol, Descending)
	if want := []string{"1", "3", "2", "4"}; !slices.Equal(ids(desc), want) {
		t.Errorf("desc = %v, want %v", ids(desc), want)
	}
}

func TestSortRecords_Idempotent(t *testing.T) {
	in := []item{
		{ID: "a", Name: "m"},
		{ID: "b", Name: "c"},
		{ID: "c", Name: "m"},
		{ID: "d", Name: "a"},
	}
	once := SortRecords(in, nameCol, Ascending)
	twice := SortRecords(once, nameCol, Ascending)
	if !slices.Equal(ids(once), ids(twice)) {
		t.Errorf("second sort = %v, want %v", ids(twice), ids(once))
	}
}

func TestSortRecords_NonNumericFirstKeepsOrder(t *testing.T) {
	in := []item{
		{ID: "x", Count: 4},
		{ID: "y", Count: "n/a"},
		{ID: "z", Count: nil},
		{ID: "w", Count: 2},
	}
	got := SortRecords(in, countCol, Ascending)
	if want := []string{"y", "z", "w", "x"}; !slices.Equal(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestSortRecords_KindNoneKeepsOrder(t *testing.T) {
	col := Column[item]{ID: "name", Value: func(i item) any { return i.Name }}
	in := []item{{ID: "b", Name: "z"}, {ID: "a", Name: "a"}}
	got := SortRecords(in, col, Ascending)
	if !slices.Equal(ids(got), []string{"b", "a"}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in     string
		want   Order
		wantOK bool
	}{
		{"asc", Ascending, true},
		{" DESC ", Descending, true},
		{"", "", false},
		{"up", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseOrder(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseOrder(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
