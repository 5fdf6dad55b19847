package observability

import (
	"context"
	"time"

	"github.com/rhuss/vdbconsole/pkg/catalog"
)

// InstrumentCatalog wraps c so every call is counted and timed under
// backend.
func InstrumentCatalog(c catalog.Catalog, backend string) catalog.Catalog {
	return &instrumented{next: c, backend: backend}
}

// InstrumentDialer instruments every catalog d opens.
func InstrumentDialer(d catalog.Dialer, backend string) catalog.Dialer {
	return catalog.DialerFunc(func(ctx context.Context, t catalog.Target) (catalog.Catalog, error) {
		start := time.Now()
		c, err := d.Dial(ctx, t)
		observe(backend, "dial", start, err)
		if err != nil {
			return nil, err
		}
		return InstrumentCatalog(c, backend), nil
	})
}

type instrumented struct {
	next    catalog.Catalog
	backend string
}

func observe(backend, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	BackendRequestsTotal.WithLabelValues(backend, op, status).Inc()
	BackendLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) ListPartitions(ctx context.Context, collection string) (_ []catalog.Partition, err error) {
	defer func(start time.Time) { observe(i.backend, "list_partitions", start, err) }(time.Now())
	return i.next.ListPartitions(ctx, collection)
}

func (i *instrumented) CreatePartition(ctx context.Context, collection, name string) (err error) {
	defer func(start time.Time) { observe(i.backend, "create_partition", start, err) }(time.Now())
	return i.next.CreatePartition(ctx, collection, name)
}

func (i *instrumented) DropPartition(ctx context.Context, collection, name string) (err error) {
	defer func(start time.Time) { observe(i.backend, "drop_partition", start, err) }(time.Now())
	return i.next.DropPartition(ctx, collection, name)
}

func (i *instrumented) GetCollection(ctx context.Context, name string) (_ *catalog.Collection, err error) {
	defer func(start time.Time) { observe(i.backend, "get_collection", start, err) }(time.Now())
	return i.next.GetCollection(ctx, name)
}

func (i *instrumented) AlterCollectionProperties(ctx context.Context, name string, props []catalog.KeyValue) (err error) {
	defer func(start time.Time) { observe(i.backend, "alter_collection_properties", start, err) }(time.Now())
	return i.next.AlterCollectionProperties(ctx, name, props)
}

func (i *instrumented) DropCollectionProperties(ctx context.Context, name string, keys []string) (err error) {
	defer func(start time.Time) { observe(i.backend, "drop_collection_properties", start, err) }(time.Now())
	return i.next.DropCollectionProperties(ctx, name, keys)
}

func (i *instrumented) Insert(ctx context.Context, collection, partition string, rows []catalog.Row) (_ int64, err error) {
	defer func(start time.Time) { observe(i.backend, "insert", start, err) }(time.Now())
	return i.next.Insert(ctx, collection, partition, rows)
}

func (i *instrumented) DescribeDatabase(ctx context.Context, name string) (_ *catalog.Database, err error) {
	defer func(start time.Time) { observe(i.backend, "describe_database", start, err) }(time.Now())
	return i.next.DescribeDatabase(ctx, name)
}

func (i *instrumented) AlterDatabaseProperties(ctx context.Context, name string, props []catalog.KeyValue) (err error) {
	defer func(start time.Time) { observe(i.backend, "alter_database_properties", start, err) }(time.Now())
	return i.next.AlterDatabaseProperties(ctx, name, props)
}

func (i *instrumented) DropDatabaseProperties(ctx context.Context, name string, keys []string) (err error) {
	defer func(start time.Time) { observe(i.backend, "drop_database_properties", start, err) }(time.Now())
	return i.next.DropDatabaseProperties(ctx, name, keys)
}

func (i *instrumented) HealthCheck(ctx context.Context) (err error) {
	defer func(start time.Time) { observe(i.backend, "health_check", start, err) }(time.Now())
	return i.next.HealthCheck(ctx)
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
