// Package memory provides an in-memory catalog for tests, demos and
// single-process deployments. All data is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rhuss/vdbconsole/pkg/catalog"
)

type collection struct {
	info       catalog.Collection
	partitions []*catalog.Partition
	rows       map[string][]catalog.Row
}

func (c *collection) partition(name string) (int, *catalog.Partition) {
	for i, p := range c.partitions {
		if p.Name == name {
			return i, p
		}
	}
	return -1, nil
}

type database struct {
	info        catalog.Database
	collections map[string]*collection
}

// Store is an in-memory Catalog. Calls are scoped to the database named by
// catalog.DatabaseFromContext.
type Store struct {
	mu        sync.RWMutex
	databases map[string]*database
	nextID    int64
	now       func() time.Time
}

var _ catalog.Catalog = (*Store)(nil)

// New creates a store holding an empty default database.
func New() *Store {
	s := &Store{
		databases: make(map[string]*database),
		now:       time.Now,
	}
	s.databases[catalog.DefaultDatabase] = &database{
		info:        catalog.Database{Name: catalog.DefaultDatabase, ID: s.id()},
		collections: make(map[string]*collection),
	}
	return s
}

// id returns the next object id. Must be called with s.mu held or before
// the store is shared.
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// CreateDatabase adds a database.
func (s *Store) CreateDatabase(name string, props []catalog.KeyValue) error {
	if err := catalog.ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.databases[name]; exists {
		return fmt.Errorf("database %q: %w", name, catalog.ErrConflict)
	}
	s.databases[name] = &database{
		info:        catalog.Database{Name: name, ID: s.id(), Properties: slices.Clone(props)},
		collections: make(map[string]*collection),
	}
	return nil
}

// CreateCollection adds a collection with its default partition to the
// context's database.
func (s *Store) CreateCollection(ctx context.Context, c catalog.Collection) error {
	if err := catalog.ValidateName(c.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.database(ctx)
	if err != nil {
		return err
	}
	if _, exists := db.collections[c.Name]; exists {
		return fmt.Errorf("collection %q: %w", c.Name, catalog.ErrConflict)
	}

	c.ID = s.id()
	c.CreatedTime = s.now().UnixMilli()
	c.Properties = slices.Clone(c.Properties)
	db.collections[c.Name] = &collection{
		info: c,
		partitions: []*catalog.Partition{{
			ID:          s.id(),
			Name:        catalog.DefaultPartition,
			CreatedTime: c.CreatedTime,
		}},
		rows: make(map[string][]catalog.Row),
	}
	return nil
}

// Seed creates collection c in the context's database together with the
// given partitions. Partitions keep their row counts; a zero creation time
// is set to now.
func (s *Store) Seed(ctx context.Context, c catalog.Collection, partitions ...catalog.Partition) error {
	if err := s.CreateCollection(ctx, c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection(ctx, c.Name)
	if err != nil {
		return err
	}
	for _, p := range partitions {
		if _, existing := col.partition(p.Name); existing != nil {
			existing.RowCount = p.RowCount
			continue
		}
		p.ID = s.id()
		if p.CreatedTime == 0 {
			p.CreatedTime = s.now().UnixMilli()
		}
		col.partitions = append(col.partitions, &p)
	}
	return nil
}

// ListPartitions returns the partitions in creation order.
func (s *Store) ListPartitions(ctx context.Context, name string) ([]catalog.Partition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Partition, len(c.partitions))
	for i, p := range c.partitions {
		out[i] = *p
	}
	return out, nil
}

// CreatePartition adds an empty partition.
func (s *Store) CreatePartition(ctx context.Context, name, partition string) error {
	if err := catalog.ValidateName(partition); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(ctx, name)
	if err != nil {
		return err
	}
	if _, p := c.partition(partition); p != nil {
		return fmt.Errorf("partition %q: %w", partition, catalog.ErrConflict)
	}
	c.partitions = append(c.partitions, &catalog.Partition{
		ID:          s.id(),
		Name:        partition,
		CreatedTime: s.now().UnixMilli(),
	})
	return nil
}

// DropPartition removes a partition and its rows.
func (s *Store) DropPartition(ctx context.Context, name, partition string) error {
	if partition == catalog.DefaultPartition {
		return catalog.ErrProtected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(ctx, name)
	if err != nil {
		return err
	}
	i, p := c.partition(partition)
	if p == nil {
		return fmt.Errorf("partition %q: %w", partition, catalog.ErrNotFound)
	}
	c.partitions = slices.Delete(c.partitions, i, i+1)
	delete(c.rows, partition)
	return nil
}

// GetCollection returns a copy of the collection description.
func (s *Store) GetCollection(ctx context.Context, name string) (*catalog.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	info := c.info
	info.Properties = slices.Clone(c.info.Properties)
	if c.info.Schema != nil {
		info.Schema = &catalog.Schema{Fields: slices.Clone(c.info.Schema.Fields)}
	}
	return &info, nil
}

// AlterCollectionProperties sets property values.
func (s *Store) AlterCollectionProperties(ctx context.Context, name string, props []catalog.KeyValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(ctx, name)
	if err != nil {
		return err
	}
	c.info.Properties = upsert(c.info.Properties, props)
	return nil
}

// DropCollectionProperties removes property values so defaults apply again.
func (s *Store) DropCollectionProperties(ctx context.Context, name string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(ctx, name)
	if err != nil {
		return err
	}
	c.info.Properties = remove(c.info.Properties, keys)
	return nil
}

// Insert appends rows to a partition. An empty partition name means the
// default partition.
func (s *Store) Insert(ctx context.Context, name, partition string, rows []catalog.Row) (int64, error) {
	if partition == "" {
		partition = catalog.DefaultPartition
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(ctx, name)
	if err != nil {
		return 0, err
	}
	_, p := c.partition(partition)
	if p == nil {
		return 0, fmt.Errorf("partition %q: %w", partition, catalog.ErrNotFound)
	}
	for _, r := range rows {
		c.rows[partition] = append(c.rows[partition], maps.Clone(r))
	}
	p.RowCount += int64(len(rows))
	return int64(len(rows)), nil
}

// DescribeDatabase returns a copy of the database description.
func (s *Store) DescribeDatabase(_ context.Context, name string) (*catalog.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, ok := s.databases[name]
	if !ok {
		return nil, fmt.Errorf("database %q: %w", name, catalog.ErrNotFound)
	}
	info := db.info
	info.Properties = slices.Clone(db.info.Properties)
	return &info, nil
}

// AlterDatabaseProperties sets property values.
func (s *Store) AlterDatabaseProperties(_ context.Context, name string, props []catalog.KeyValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("database %q: %w", name, catalog.ErrNotFound)
	}
	db.info.Properties = upsert(db.info.Properties, props)
	return nil
}

// DropDatabaseProperties removes property values.
func (s *Store) DropDatabaseProperties(_ context.Context, name string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("database %q: %w", name, catalog.ErrNotFound)
	}
	db.info.Properties = remove(db.info.Properties, keys)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Dialer returns a dialer that connects every target to s. A target that
// names a database must name an existing one.
func (s *Store) Dialer() catalog.Dialer {
	return catalog.DialerFunc(func(_ context.Context, t catalog.Target) (catalog.Catalog, error) {
		if t.Database != "" {
			s.mu.RLock()
			_, ok := s.databases[t.Database]
			s.mu.RUnlock()
			if !ok {
				return nil, fmt.Errorf("database %q: %w", t.Database, catalog.ErrNotFound)
			}
		}
		return s, nil
	})
}

// database must be called with s.mu held.
func (s *Store) database(ctx context.Context) (*database, error) {
	name := catalog.DatabaseFromContext(ctx)
	db, ok := s.databases[name]
	if !ok {
		return nil, fmt.Errorf("database %q: %w", name, catalog.ErrNotFound)
	}
	return db, nil
}

// collection must be called with s.mu held.
func (s *Store) collection(ctx context.Context, name string) (*collection, error) {
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := db.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, catalog.ErrNotFound)
	}
	return c, nil
}

func upsert(props, set []catalog.KeyValue) []catalog.KeyValue {
	out := slices.Clone(props)
	for _, kv := range set {
		i := slices.IndexFunc(out, func(p catalog.KeyValue) bool { return p.Key == kv.Key })
		if i >= 0 {
			out[i].Value = kv.Value
		} else {
			out = append(out, kv)
		}
	}
	return out
}

func remove(props []catalog.KeyValue, keys []string) []catalog.KeyValue {
	return slices.DeleteFunc(slices.Clone(props), func(p catalog.KeyValue) bool {
		return slices.Contains(keys, p.Key)
	})
}

