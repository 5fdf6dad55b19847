// Package postgres provides a PostgreSQL-backed catalog. It uses pgx/v5 for
// connection pooling, JSONB for collection schemas and inserted entities,
// and embedded SQL migrations for the table layout.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/vdbconsole/pkg/catalog"
)

const (
	ownerDatabase   = "database"
	ownerCollection = "collection"
)

// Store is a PostgreSQL-backed Catalog. Calls are scoped to the database
// named by catalog.DatabaseFromContext.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ catalog.Catalog = (*Store)(nil)

// New connects to the catalog database. If MigrateOnStart is set, pending
// migrations are applied before New returns.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, now: time.Now}
	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}
	return s, nil
}

// Dialer returns a dialer sharing the store's pool. A target that names a
// database must name an existing one.
func (s *Store) Dialer() catalog.Dialer {
	return catalog.DialerFunc(func(ctx context.Context, t catalog.Target) (catalog.Catalog, error) {
		if t.Database != "" {
			if _, err := s.databaseID(ctx, t.Database); err != nil {
				return nil, err
			}
		}
		return sharedStore{s}, nil
	})
}

// sharedStore keeps connections from closing the pool they share.
type sharedStore struct{ *Store }

func (sharedStore) Close() error { return nil }

// CreateDatabase adds a database.
func (s *Store) CreateDatabase(ctx context.Context, name string) error {
	if err := catalog.ValidateName(name); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, "INSERT INTO databases (name) VALUES ($1)", name)
	if isDuplicateKey(err) {
		return fmt.Errorf("database %q: %w", name, catalog.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting database: %w", err)
	}
	return nil
}

// CreateCollection adds a collection with its default partition to the
// context's database.
func (s *Store) CreateCollection(ctx context.Context, c catalog.Collection) error {
	if err := catalog.ValidateName(c.Name); err != nil {
		return err
	}
	dbID, err := s.databaseID(ctx, catalog.DatabaseFromContext(ctx))
	if err != nil {
		return err
	}

	var schemaJSON []byte
	if c.Schema != nil {
		if schemaJSON, err = json.Marshal(c.Schema); err != nil {
			return fmt.Errorf("marshaling schema: %w", err)
		}
	}
	created := s.now().UnixMilli()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO collections (database_id, name, schema, created_time)
			VALUES ($1, $2, $3, $4) RETURNING id
		`, dbID, c.Name, nullJSON(schemaJSON), created).Scan(&id)
		if isDuplicateKey(err) {
			return fmt.Errorf("collection %q: %w", c.Name, catalog.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("inserting collection: %w", err)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO partitions (collection_id, name, created_time) VALUES ($1, $2, $3)",
			id, catalog.DefaultPartition, created,
		); err != nil {
			return fmt.Errorf("inserting default partition: %w", err)
		}
		return setProperties(ctx, tx, ownerCollection, id, c.Properties)
	})
}

// ListPartitions returns the partitions in creation order.
func (s *Store) ListPartitions(ctx context.Context, collection string) ([]catalog.Partition, error) {
	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, row_count, created_time
		FROM partitions WHERE collection_id = $1 ORDER BY id
	`, colID)
	if err != nil {
		return nil, fmt.Errorf("querying partitions: %w", err)
	}
	parts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Partition, error) {
		var p catalog.Partition
		err := row.Scan(&p.ID, &p.Name, &p.RowCount, &p.CreatedTime)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning partitions: %w", err)
	}
	return parts, nil
}

// CreatePartition adds an empty partition.
func (s *Store) CreatePartition(ctx context.Context, collection, name string) error {
	if err := catalog.ValidateName(name); err != nil {
		return err
	}
	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		"INSERT INTO partitions (collection_id, name, created_time) VALUES ($1, $2, $3)",
		colID, name, s.now().UnixMilli(),
	)
	if isDuplicateKey(err) {
		return fmt.Errorf("partition %q: %w", name, catalog.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting partition: %w", err)
	}
	return nil
}

// DropPartition removes a partition and its entities.
func (s *Store) DropPartition(ctx context.Context, collection, name string) error {
	if name == catalog.DefaultPartition {
		return catalog.ErrProtected
	}
	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return err
	}
	result, err := s.pool.Exec(ctx,
		"DELETE FROM partitions WHERE collection_id = $1 AND name = $2", colID, name)
	if err != nil {
		return fmt.Errorf("deleting partition: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("partition %q: %w", name, catalog.ErrNotFound)
	}
	return nil
}

// GetCollection returns the collection with its schema and properties.
func (s *Store) GetCollection(ctx context.Context, name string) (*catalog.Collection, error) {
	dbID, err := s.databaseID(ctx, catalog.DatabaseFromContext(ctx))
	if err != nil {
		return nil, err
	}

	c := catalog.Collection{Name: name}
	var schemaJSON []byte
	err = s.pool.QueryRow(ctx, `
		SELECT id, schema, created_time FROM collections
		WHERE database_id = $1 AND name = $2
	`, dbID, name).Scan(&c.ID, &schemaJSON, &c.CreatedTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("collection %q: %w", name, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	if len(schemaJSON) > 0 {
		c.Schema = &catalog.Schema{}
		if err := json.Unmarshal(schemaJSON, c.Schema); err != nil {
			return nil, fmt.Errorf("unmarshaling schema: %w", err)
		}
	}
	if c.Properties, err = s.properties(ctx, ownerCollection, c.ID); err != nil {
		return nil, err
	}
	return &c, nil
}

// AlterCollectionProperties sets property values.
func (s *Store) AlterCollectionProperties(ctx context.Context, name string, props []catalog.KeyValue) error {
	colID, err := s.collectionID(ctx, name)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return setProperties(ctx, tx, ownerCollection, colID, props)
	})
}

// DropCollectionProperties removes property values.
func (s *Store) DropCollectionProperties(ctx context.Context, name string, keys []string) error {
	colID, err := s.collectionID(ctx, name)
	if err != nil {
		return err
	}
	return s.dropProperties(ctx, ownerCollection, colID, keys)
}

// Insert copies rows into a partition and bumps its row count. An empty
// partition name means the default partition.
func (s *Store) Insert(ctx context.Context, collection, partition string, rows []catalog.Row) (int64, error) {
	if partition == "" {
		partition = catalog.DefaultPartition
	}
	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return 0, err
	}

	var inserted int64
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var partID int64
		err := tx.QueryRow(ctx,
			"SELECT id FROM partitions WHERE collection_id = $1 AND name = $2 FOR UPDATE",
			colID, partition,
		).Scan(&partID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("partition %q: %w", partition, catalog.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("querying partition: %w", err)
		}

		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"entities"},
			[]string{"partition_id", "data"},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				data, err := json.Marshal(rows[i])
				if err != nil {
					return nil, fmt.Errorf("marshaling row %d: %w", i, err)
				}
				return []any{partID, data}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copying rows: %w", err)
		}
		if _, err := tx.Exec(ctx,
			"UPDATE partitions SET row_count = row_count + $1 WHERE id = $2", n, partID,
		); err != nil {
			return fmt.Errorf("updating row count: %w", err)
		}
		inserted = n
		return nil
	})
	return inserted, err
}

// DescribeDatabase returns the database with its properties.
func (s *Store) DescribeDatabase(ctx context.Context, name string) (*catalog.Database, error) {
	id, err := s.databaseID(ctx, name)
	if err != nil {
		return nil, err
	}
	props, err := s.properties(ctx, ownerDatabase, id)
	if err != nil {
		return nil, err
	}
	return &catalog.Database{Name: name, ID: id, Properties: props}, nil
}

// AlterDatabaseProperties sets property values.
func (s *Store) AlterDatabaseProperties(ctx context.Context, name string, props []catalog.KeyValue) error {
	id, err := s.databaseID(ctx, name)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return setProperties(ctx, tx, ownerDatabase, id, props)
	})
}

// DropDatabaseProperties removes property values.
func (s *Store) DropDatabaseProperties(ctx context.Context, name string, keys []string) error {
	id, err := s.databaseID(ctx, name)
	if err != nil {
		return err
	}
	return s.dropProperties(ctx, ownerDatabase, id, keys)
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) databaseID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, "SELECT id FROM databases WHERE name = $1", name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("database %q: %w", name, catalog.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("querying database: %w", err)
	}
	return id, nil
}

func (s *Store) collectionID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		SELECT c.id FROM collections c
		JOIN databases d ON d.id = c.database_id
		WHERE d.name = $1 AND c.name = $2
	`, catalog.DatabaseFromContext(ctx), name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("collection %q: %w", name, catalog.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("querying collection: %w", err)
	}
	return id, nil
}

func (s *Store) properties(ctx context.Context, kind string, owner int64) ([]catalog.KeyValue, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key, value FROM properties
		WHERE owner_kind = $1 AND owner_id = $2 ORDER BY position
	`, kind, owner)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	props, err := pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.KeyValue])
	if err != nil {
		return nil, fmt.Errorf("scanning properties: %w", err)
	}
	return props, nil
}

func (s *Store) dropProperties(ctx context.Context, kind string, owner int64, keys []string) error {
	if _, err := s.pool.Exec(ctx,
		"DELETE FROM properties WHERE owner_kind = $1 AND owner_id = $2 AND key = ANY($3)",
		kind, owner, keys,
	); err != nil {
		return fmt.Errorf("deleting properties: %w", err)
	}
	return nil
}

func setProperties(ctx context.Context, tx pgx.Tx, kind string, owner int64, props []catalog.KeyValue) error {
	if len(props) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, kv := range props {
		batch.Queue(`
			INSERT INTO properties (owner_kind, owner_id, key, value) VALUES ($1, $2, $3, $4)
			ON CONFLICT (owner_kind, owner_id, key) DO UPDATE SET value = EXCLUDED.value
		`, kind, owner, kv.Key, kv.Value)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting properties: %w", err)
	}
	return nil
}

// nullJSON converts empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// isDuplicateKey reports a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
