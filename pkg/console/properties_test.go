package console

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/catalog/memory"
	"github.com/rhuss/vdbconsole/pkg/grid"
)

func propertyGrid(t *testing.T, s Snapshot) grid.ViewModel[catalog.Property] {
	t.Helper()
	vm, ok := s.Grid.(grid.ViewModel[catalog.Property])
	if !ok {
		t.Fatalf("Grid is %T", s.Grid)
	}
	return vm
}

func cell(t *testing.T, vm grid.ViewModel[catalog.Property], key, col string) string {
	t.Helper()
	for _, r := range vm.Rows {
		if r.Key == key {
			return r.Cells[col]
		}
	}
	t.Fatalf("row %q not on page", key)
	return ""
}

func collectionProperties(t *testing.T) (*memory.Store, *PropertiesView) {
	t.Helper()
	s := memory.New()
	err := s.CreateCollection(context.Background(), catalog.Collection{
		Name:   "books",
		Schema: booksSchema,
		Properties: []catalog.KeyValue{
			{Key: "collection.ttl.seconds", Value: "86400"},
			{Key: "custom.ignored", Value: "x"},
		},
	})
	if err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	v, err := NewPropertiesView("view_props", s, "", TargetCollection, "books", Options{PageSize: 20})
	if err != nil {
		t.Fatalf("NewPropertiesView: %v", err)
	}
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return s, v
}

func TestPropertiesView_MergedDefaults(t *testing.T) {
	_, v := collectionProperties(t)
	snap := v.Snapshot()
	vm := propertyGrid(t, snap)

	if vm.Total != len(catalog.CollectionDefaults()) {
		t.Errorf("Total = %d, want %d", vm.Total, len(catalog.CollectionDefaults()))
	}
	if got := cell(t, vm, "collection.ttl.seconds", "value"); got != "86,400" {
		t.Errorf("ttl cell = %q, want 86,400", got)
	}
	if got := cell(t, vm, "mmap.enabled", "value"); got != "-" {
		t.Errorf("unset cell = %q, want -", got)
	}
	if snap.Loading {
		t.Error("Loading with properties present")
	}
	if vm.Columns[0].Sortable || !vm.Columns[0].Copyable {
		t.Errorf("key column = %+v, want copyable and not sortable", vm.Columns[0])
	}
}

func TestPropertiesView_SingleSelect(t *testing.T) {
	_, v := collectionProperties(t)
	got := v.Select([]string{"mmap.enabled", "collection.ttl.seconds"})
	if !slices.Equal(got, []string{"collection.ttl.seconds"}) {
		t.Errorf("Select = %v, want last key only", got)
	}
}

func TestPropertiesView_ActionsNeedSelection(t *testing.T) {
	_, v := collectionProperties(t)
	ctx := context.Background()
	for _, a := range []string{ActionEdit, ActionReset} {
		if err := v.Trigger(ctx, a, nil); !errors.Is(err, ErrActionDisabled) {
			t.Errorf("%s without selection error = %v, want ErrActionDisabled", a, err)
		}
	}
}

func TestPropertiesView_EditFlow(t *testing.T) {
	s, v := collectionProperties(t)
	ctx := context.Background()
	v.Select([]string{"collection.ttl.seconds"})

	if err := v.Trigger(ctx, ActionEdit, nil); err != nil {
		t.Fatalf("open edit: %v", err)
	}
	d := v.Snapshot().Dialog
	if d == nil || d.Params["key"] != "collection.ttl.seconds" || d.Params["value"] != "86400" {
		t.Fatalf("edit dialog = %+v", d)
	}

	if err := v.Trigger(ctx, ActionEdit, map[string]any{"value": "soon"}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("non-numeric value error = %v, want ErrInvalidParams", err)
	}
	if err := v.Trigger(ctx, ActionEdit, map[string]any{"value": float64(3600)}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	snap := v.Snapshot()
	if !slices.Equal(snap.Messages, []string{"collection.ttl.seconds updated"}) {
		t.Errorf("Messages = %v", snap.Messages)
	}
	vm := propertyGrid(t, snap)
	if got := cell(t, vm, "collection.ttl.seconds", "value"); got != "3,600" {
		t.Errorf("ttl cell = %q, want 3,600", got)
	}
	if !slices.Equal(vm.Selected, []string{"collection.ttl.seconds"}) {
		t.Errorf("Selected = %v, want retained", vm.Selected)
	}

	col, _ := s.GetCollection(ctx, "books")
	if !slices.Contains(col.Properties, catalog.KeyValue{Key: "collection.ttl.seconds", Value: "3600"}) {
		t.Errorf("stored properties = %v", col.Properties)
	}
}

func TestPropertiesView_EditBoolean(t *testing.T) {
	_, v := collectionProperties(t)
	ctx := context.Background()
	v.Select([]string{"mmap.enabled"})

	if err := v.Trigger(ctx, ActionEdit, map[string]any{"value": "maybe"}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("error = %v, want ErrInvalidParams", err)
	}
	if err := v.Trigger(ctx, ActionEdit, map[string]any{"value": true}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := cell(t, propertyGrid(t, v.Snapshot()), "mmap.enabled", "value"); got != "true" {
		t.Errorf("mmap cell = %q", got)
	}
}

func TestPropertiesView_ResetFlow(t *testing.T) {
	_, v := collectionProperties(t)
	ctx := context.Background()
	v.Select([]string{"collection.ttl.seconds"})

	if err := v.Trigger(ctx, ActionReset, map[string]any{"confirm": true}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	snap := v.Snapshot()
	if !slices.Equal(snap.Messages, []string{"collection.ttl.seconds reset"}) {
		t.Errorf("Messages = %v", snap.Messages)
	}
	if got := cell(t, propertyGrid(t, snap), "collection.ttl.seconds", "value"); got != "-" {
		t.Errorf("ttl cell = %q, want -", got)
	}
}

func TestPropertiesView_Database(t *testing.T) {
	s := memory.New()
	if err := s.CreateDatabase("analytics", []catalog.KeyValue{{Key: "database.max.collections", Value: "64"}}); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	ctx := context.Background()
	v, err := NewPropertiesView("view_db", s, "analytics", TargetDatabase, "", Options{})
	if err != nil {
		t.Fatalf("NewPropertiesView: %v", err)
	}
	if typ, name := v.Target(); typ != TargetDatabase || name != "analytics" {
		t.Errorf("Target = %s %s", typ, name)
	}
	if err := v.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := v.Snapshot()
	if got := cell(t, propertyGrid(t, snap), "database.max.collections", "value"); got != "64" {
		t.Errorf("max collections = %q", got)
	}
	if snap.Label != "1-6 of 6 properties" {
		t.Errorf("Label = %q", snap.Label)
	}

	v.Select([]string{"database.force.deny.writing"})
	if err := v.Trigger(ctx, ActionEdit, map[string]any{"value": "TRUE"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	db, _ := s.DescribeDatabase(ctx, "analytics")
	if !slices.Contains(db.Properties, catalog.KeyValue{Key: "database.force.deny.writing", Value: "true"}) {
		t.Errorf("stored properties = %v", db.Properties)
	}
}

func TestPropertiesView_LoadingWithoutSchema(t *testing.T) {
	s := memory.New()
	if err := s.CreateCollection(context.Background(), catalog.Collection{Name: "raw"}); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	v, _ := NewPropertiesView("view_raw", s, "", TargetCollection, "raw", Options{})
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := v.Snapshot()
	if !snap.Loading || propertyGrid(t, snap).Total != 0 {
		t.Errorf("Loading = %v Total = %d, want loading and empty", snap.Loading, propertyGrid(t, snap).Total)
	}
}

func TestNewPropertiesView_Validation(t *testing.T) {
	s := memory.New()
	if _, err := NewPropertiesView("v", s, "", TargetCollection, "", Options{}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("collection without target error = %v", err)
	}
	if _, err := NewPropertiesView("v", s, "", "index", "x", Options{}); !errors.Is(err, ErrUnknownViewKind) {
		t.Errorf("unknown type error = %v", err)
	}
	_, v := collectionProperties(t)
	if err := v.Search(context.Background(), "ttl"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Search error = %v, want ErrUnknownAction", err)
	}
}
