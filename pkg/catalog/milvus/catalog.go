package milvus

import (
	"context"
	"fmt"

	"github.com/rhuss/vdbconsole/pkg/catalog"
)

type partitionStats struct {
	RowCount int64 `json:"rowCount"`
}

// ListPartitions lists partition names and reads each partition's row
// count. The REST API exposes neither partition ids nor creation times, so
// ids are positions and creation times are zero.
func (c *Client) ListPartitions(ctx context.Context, collection string) ([]catalog.Partition, error) {
	var names []string
	if err := c.call(ctx, "partitions/list", map[string]any{"collectionName": collection}, &names); err != nil {
		return nil, err
	}

	parts := make([]catalog.Partition, 0, len(names))
	for i, name := range names {
		var stats partitionStats
		if err := c.call(ctx, "partitions/get_stats", map[string]any{
			"collectionName": collection,
			"partitionName":  name,
		}, &stats); err != nil {
			return nil, err
		}
		parts = append(parts, catalog.Partition{
			ID:       int64(i + 1),
			Name:     name,
			RowCount: stats.RowCount,
		})
	}
	return parts, nil
}

// CreatePartition creates a partition.
func (c *Client) CreatePartition(ctx context.Context, collection, name string) error {
	if err := catalog.ValidateName(name); err != nil {
		return err
	}
	return c.call(ctx, "partitions/create", map[string]any{
		"collectionName": collection,
		"partitionName":  name,
	}, nil)
}

// DropPartition releases and drops a partition. Milvus refuses to drop a
// loaded partition, so a release is issued first.
func (c *Client) DropPartition(ctx context.Context, collection, name string) error {
	if name == catalog.DefaultPartition {
		return catalog.ErrProtected
	}
	body := map[string]any{"collectionName": collection, "partitionNames": []string{name}}
	if err := c.call(ctx, "partitions/release", body, nil); err != nil {
		return err
	}
	return c.call(ctx, "partitions/drop", map[string]any{
		"collectionName": collection,
		"partitionName":  name,
	}, nil)
}

type describeCollection struct {
	CollectionName string `json:"collectionName"`
	CollectionID   int64  `json:"collectionID"`
	CreatedTime    int64  `json:"createdTime"`
	Fields         []struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		PrimaryKey bool   `json:"primaryKey"`
		AutoID     bool   `json:"autoId"`
	} `json:"fields"`
	Properties []catalog.KeyValue `json:"properties"`
}

// GetCollection describes a collection.
func (c *Client) GetCollection(ctx context.Context, name string) (*catalog.Collection, error) {
	var d describeCollection
	if err := c.call(ctx, "collections/describe", map[string]any{"collectionName": name}, &d); err != nil {
		return nil, err
	}
	schema := &catalog.Schema{Fields: make([]catalog.Field, 0, len(d.Fields))}
	for _, f := range d.Fields {
		schema.Fields = append(schema.Fields, catalog.Field{
			Name:         f.Name,
			DataType:     f.Type,
			IsPrimaryKey: f.PrimaryKey,
			AutoID:       f.AutoID,
		})
	}
	return &catalog.Collection{
		Name:        d.CollectionName,
		ID:          d.CollectionID,
		Schema:      schema,
		Properties:  d.Properties,
		CreatedTime: d.CreatedTime,
	}, nil
}

// AlterCollectionProperties sets collection properties.
func (c *Client) AlterCollectionProperties(ctx context.Context, name string, props []catalog.KeyValue) error {
	return c.call(ctx, "collections/alter_properties", map[string]any{
		"collectionName": name,
		"properties":     propertyMap(props),
	}, nil)
}

// DropCollectionProperties resets collection properties to their defaults.
func (c *Client) DropCollectionProperties(ctx context.Context, name string, keys []string) error {
	return c.call(ctx, "collections/drop_properties", map[string]any{
		"collectionName": name,
		"propertyKeys":   keys,
	}, nil)
}

// Insert writes rows. An empty partition name inserts into the default
// partition.
func (c *Client) Insert(ctx context.Context, collection, partition string, rows []catalog.Row) (int64, error) {
	body := map[string]any{
		"collectionName": collection,
		"data":           rows,
	}
	if partition != "" {
		body["partitionName"] = partition
	}
	var out struct {
		InsertCount int64 `json:"insertCount"`
	}
	if err := c.call(ctx, "entities/insert", body, &out); err != nil {
		return 0, err
	}
	return out.InsertCount, nil
}

// DescribeDatabase describes a database.
func (c *Client) DescribeDatabase(ctx context.Context, name string) (*catalog.Database, error) {
	var d struct {
		DBName     string             `json:"dbName"`
		DBID       int64              `json:"dbID"`
		Properties []catalog.KeyValue `json:"properties"`
	}
	if err := c.call(ctx, "databases/describe", map[string]any{"dbName": name}, &d); err != nil {
		return nil, err
	}
	if d.DBName == "" {
		d.DBName = name
	}
	return &catalog.Database{Name: d.DBName, ID: d.DBID, Properties: d.Properties}, nil
}

// AlterDatabaseProperties sets database properties.
func (c *Client) AlterDatabaseProperties(ctx context.Context, name string, props []catalog.KeyValue) error {
	return c.call(ctx, "databases/alter", map[string]any{
		"dbName":     name,
		"properties": propertyMap(props),
	}, nil)
}

// DropDatabaseProperties resets database properties.
func (c *Client) DropDatabaseProperties(ctx context.Context, name string, keys []string) error {
	return c.call(ctx, "databases/drop_properties", map[string]any{
		"dbName":       name,
		"propertyKeys": keys,
	}, nil)
}

func propertyMap(props []catalog.KeyValue) map[string]string {
	m := make(map[string]string, len(props))
	for _, kv := range props {
		m[kv.Key] = kv.Value
	}
	return m
}

// String identifies the client in logs.
func (c *Client) String() string {
	return fmt.Sprintf("milvus(%s)", c.BaseURL)
}
