package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rhuss/vdbconsole/pkg/catalog"
)

func newSeeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	err := s.Seed(context.Background(), catalog.Collection{
		Name: "books",
		Schema: &catalog.Schema{Fields: []catalog.Field{
			{Name: "id", DataType: "Int64", IsPrimaryKey: true},
			{Name: "vec", DataType: "FloatVector"},
		}},
		Properties: []catalog.KeyValue{{Key: "mmap.enabled", Value: "true"}},
	}, catalog.Partition{Name: "p2024", RowCount: 42})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func TestCreateCollection_HasDefaultPartition(t *testing.T) {
	s := newSeeded(t)
	parts, err := s.ListPartitions(context.Background(), "books")
	if err != nil {
		t.Fatalf("ListPartitions: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("len = %d, want 2", len(parts))
	}
	if parts[0].Name != catalog.DefaultPartition || !parts[0].IsDefault() {
		t.Errorf("first partition = %q, want _default", parts[0].Name)
	}
	if parts[1].RowCount != 42 || parts[1].CreatedTime != 1700000000000 {
		t.Errorf("seeded partition = %+v", parts[1])
	}
}

func TestCreateAndDropPartition(t *testing.T) {
	s := newSeeded(t)
	ctx := context.Background()

	if err := s.CreatePartition(ctx, "books", "fresh"); err != nil {
		t.Fatalf("CreatePartition: %v", err)
	}
	if err := s.CreatePartition(ctx, "books", "fresh"); !errors.Is(err, catalog.ErrConflict) {
		t.Errorf("duplicate create error = %v, want ErrConflict", err)
	}
	if err := s.CreatePartition(ctx, "books", "bad name"); !errors.Is(err, catalog.ErrInvalidName) {
		t.Errorf("invalid name error = %v, want ErrInvalidName", err)
	}

	if err := s.DropPartition(ctx, "books", "fresh"); err != nil {
		t.Fatalf("DropPartition: %v", err)
	}
	if err := s.DropPartition(ctx, "books", "fresh"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("second drop error = %v, want ErrNotFound", err)
	}
	if err := s.DropPartition(ctx, "books", catalog.DefaultPartition); !errors.Is(err, catalog.ErrProtected) {
		t.Errorf("drop _default error = %v, want ErrProtected", err)
	}
}

func TestListPartitions_UnknownCollection(t *testing.T) {
	s := New()
	if _, err := s.ListPartitions(context.Background(), "nope"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestInsert_UpdatesRowCount(t *testing.T) {
	s := newSeeded(t)
	ctx := context.Background()

	n, err := s.Insert(ctx, "books", "p2024", []catalog.Row{{"id": 1}, {"id": 2}})
	if err != nil || n != 2 {
		t.Fatalf("Insert = %d, %v", n, err)
	}
	if _, err := s.Insert(ctx, "books", "missing", []catalog.Row{{"id": 3}}); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("insert into missing partition error = %v", err)
	}
	if _, err := s.Insert(ctx, "books", "", []catalog.Row{{"id": 3}}); err != nil {
		t.Errorf("insert into default partition: %v", err)
	}

	parts, _ := s.ListPartitions(ctx, "books")
	if parts[0].RowCount != 1 || parts[1].RowCount != 44 {
		t.Errorf("row counts = %d, %d, want 1, 44", parts[0].RowCount, parts[1].RowCount)
	}
}

func TestCollectionProperties(t *testing.T) {
	s := newSeeded(t)
	ctx := context.Background()

	err := s.AlterCollectionProperties(ctx, "books", []catalog.KeyValue{
		{Key: "mmap.enabled", Value: "false"},
		{Key: "collection.ttl.seconds", Value: "3600"},
	})
	if err != nil {
		t.Fatalf("Alter: %v", err)
	}
	c, _ := s.GetCollection(ctx, "books")
	if len(c.Properties) != 2 || c.Properties[0].Value != "false" {
		t.Errorf("properties = %+v", c.Properties)
	}

	if err := s.DropCollectionProperties(ctx, "books", []string{"mmap.enabled"}); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	c, _ = s.GetCollection(ctx, "books")
	if len(c.Properties) != 1 || c.Properties[0].Key != "collection.ttl.seconds" {
		t.Errorf("properties after drop = %+v", c.Properties)
	}

	// Returned values are copies.
	c.Properties[0].Value = "x"
	again, _ := s.GetCollection(ctx, "books")
	if again.Properties[0].Value != "3600" {
		t.Error("GetCollection shares property storage")
	}
}

func TestDatabaseScoping(t *testing.T) {
	s := newSeeded(t)
	if err := s.CreateDatabase("analytics", []catalog.KeyValue{{Key: "database.replica.number", Value: "2"}}); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	if err := s.CreateDatabase("analytics", nil); !errors.Is(err, catalog.ErrConflict) {
		t.Errorf("duplicate database error = %v", err)
	}

	ctx := catalog.ContextWithDatabase(context.Background(), "analytics")
	if _, err := s.GetCollection(ctx, "books"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("books should not exist in analytics: %v", err)
	}

	db, err := s.DescribeDatabase(ctx, "analytics")
	if err != nil || db.Properties[0].Value != "2" {
		t.Fatalf("DescribeDatabase = %+v, %v", db, err)
	}
	if err := s.AlterDatabaseProperties(ctx, "analytics", []catalog.KeyValue{{Key: "database.max.collections", Value: "10"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.DropDatabaseProperties(ctx, "analytics", []string{"database.replica.number"}); err != nil {
		t.Fatal(err)
	}
	db, _ = s.DescribeDatabase(ctx, "analytics")
	if len(db.Properties) != 1 || db.Properties[0].Key != "database.max.collections" {
		t.Errorf("properties = %+v", db.Properties)
	}
	if _, err := s.DescribeDatabase(ctx, "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("missing database error = %v", err)
	}
}

func TestDialer(t *testing.T) {
	s := New()
	d := s.Dialer()

	c, err := d.Dial(context.Background(), catalog.Target{Address: "memory"})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
	if _, err := d.Dial(context.Background(), catalog.Target{Database: "missing"}); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Dial unknown database error = %v", err)
	}
}
