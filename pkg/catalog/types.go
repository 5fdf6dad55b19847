package catalog

import (
	"context"
	"fmt"
	"regexp"
)

// DefaultPartition is created with every collection and cannot be dropped.
const DefaultPartition = "_default"

// DefaultDatabase is used when a target names no database.
const DefaultDatabase = "default"

// Partition is one partition of a collection.
type Partition struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RowCount int64  `json:"rowCount"`
	// CreatedTime is epoch milliseconds.
	CreatedTime int64 `json:"createdTime"`
}

// IsDefault reports whether p is the collection's default partition.
func (p Partition) IsDefault() bool { return p.Name == DefaultPartition }

// Field is one column of a collection schema.
type Field struct {
	Name         string `json:"name"`
	DataType     string `json:"dataType"`
	IsPrimaryKey bool   `json:"isPrimaryKey,omitempty"`
	AutoID       bool   `json:"autoId,omitempty"`
}

// Schema is the field layout of a collection.
type Schema struct {
	Fields []Field `json:"fields"`
}

// PrimaryKey returns the primary key field, if any.
func (s *Schema) PrimaryKey() (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.IsPrimaryKey {
			return f, true
		}
	}
	return Field{}, false
}

// KeyValue is a property as stored by the backend.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Collection describes a collection and its custom properties.
type Collection struct {
	Name        string     `json:"name"`
	ID          int64      `json:"id"`
	Schema      *Schema    `json:"schema,omitempty"`
	Properties  []KeyValue `json:"properties,omitempty"`
	CreatedTime int64      `json:"createdTime"`
}

// Database describes a database and its custom properties.
type Database struct {
	Name       string     `json:"name"`
	ID         int64      `json:"id"`
	Properties []KeyValue `json:"properties,omitempty"`
}

// Row is one entity to insert, keyed by field name.
type Row map[string]any

// PartitionService manages the partitions of a collection.
type PartitionService interface {
	ListPartitions(ctx context.Context, collection string) ([]Partition, error)
	CreatePartition(ctx context.Context, collection, name string) error
	DropPartition(ctx context.Context, collection, name string) error
}

// CollectionService reads collections and edits their properties.
type CollectionService interface {
	GetCollection(ctx context.Context, name string) (*Collection, error)
	AlterCollectionProperties(ctx context.Context, name string, props []KeyValue) error
	DropCollectionProperties(ctx context.Context, name string, keys []string) error
	// Insert writes rows into a partition and returns the number inserted.
	Insert(ctx context.Context, collection, partition string, rows []Row) (int64, error)
}

// DatabaseService reads databases and edits their properties.
type DatabaseService interface {
	DescribeDatabase(ctx context.Context, name string) (*Database, error)
	AlterDatabaseProperties(ctx context.Context, name string, props []KeyValue) error
	DropDatabaseProperties(ctx context.Context, name string, keys []string) error
}

// Catalog is a connected backend.
type Catalog interface {
	PartitionService
	CollectionService
	DatabaseService

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Target is where a connection points.
type Target struct {
	Address  string `json:"address"`
	Username string `json:"username,omitempty"`
	Password string `json:"-"`
	Token    string `json:"-"`
	Database string `json:"database,omitempty"`
}

// Dialer opens a Catalog for a target.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Catalog, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, target Target) (Catalog, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, target Target) (Catalog, error) {
	return f(ctx, target)
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,254}$`)

// ValidateName checks a collection or partition name against the rules
// Milvus enforces: a letter or underscore first, then letters, digits and
// underscores, at most 255 characters.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
