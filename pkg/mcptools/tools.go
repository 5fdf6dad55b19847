// Package mcptools exposes read-only grid listings as MCP tools.
//
// Each MCP session is bound to the console connection of the request that
// opened it. Tool calls build a transient view on that connection, apply
// the requested search, sort and page, and return the snapshot as JSON
// text content. Transient views are never registered with the console.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rhuss/vdbconsole/pkg/auth"
	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/console"
	"github.com/rhuss/vdbconsole/pkg/debug"
	"github.com/rhuss/vdbconsole/pkg/grid"
)

// Tool names.
const (
	ToolListPartitions = "list_partitions"
	ToolListProperties = "list_properties"
)

// transientViewID names views built for a single tool call.
const transientViewID = "mcp"

// Connections resolves the connection an MCP session is bound to.
type Connections interface {
	Get(id string) (*console.Connection, error)
}

// ListPartitionsInput are the arguments of list_partitions.
type ListPartitionsInput struct {
	Collection string `json:"collection" jsonschema:"the collection whose partitions are listed"`
	Page       int    `json:"page,omitempty" jsonschema:"zero-based page index, clamped to the last page"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"rows per page"`
	OrderBy    string `json:"order_by,omitempty" jsonschema:"sortable column: name, rowCount or createdTime"`
	Order      string `json:"order,omitempty" jsonschema:"asc or desc"`
	Search     string `json:"search,omitempty" jsonschema:"case-sensitive substring the partition name must contain"`
}

// ListPropertiesInput are the arguments of list_properties.
type ListPropertiesInput struct {
	Type     string `json:"type" jsonschema:"collection or database"`
	Target   string `json:"target,omitempty" jsonschema:"collection name, or database name (defaults to the connection's database)"`
	Page     int    `json:"page,omitempty" jsonschema:"zero-based page index, clamped to the last page"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"rows per page"`
	OrderBy  string `json:"order_by,omitempty" jsonschema:"sortable column: value"`
	Order    string `json:"order,omitempty" jsonschema:"asc or desc"`
}

// Tools serves the MCP tools for a set of connections.
type Tools struct {
	conns   Connections
	opts    console.Options
	version string
}

// New creates the tool set. opts are the grid defaults of transient views.
func New(conns Connections, opts console.Options, version string) *Tools {
	return &Tools{conns: conns, opts: opts, version: version}
}

// Server returns an MCP server whose tools act on connID.
func (t *Tools) Server(connID string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "vdbconsole", Version: t.version},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListPartitions,
		Description: "Lists the partitions of a collection as a sorted, paginated grid",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ListPartitionsInput) (*mcp.CallToolResult, struct{}, error) {
		return t.listPartitions(ctx, connID, in), struct{}{}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListProperties,
		Description: "Lists the properties of a collection or database as a sorted, paginated grid",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ListPropertiesInput) (*mcp.CallToolResult, struct{}, error) {
		return t.listProperties(ctx, connID, in), struct{}{}, nil
	})

	return server
}

// Handler serves MCP over streamable HTTP. It must run behind the auth
// middleware: sessions opened without a connection are refused.
func (t *Tools) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		connID := auth.ConnectionFromContext(r.Context())
		if connID == "" {
			return nil
		}
		debug.Log("transport", "mcp session bound", "connection", connID)
		return t.Server(connID)
	}, nil)
}

func (t *Tools) listPartitions(ctx context.Context, connID string, in ListPartitionsInput) *mcp.CallToolResult {
	if err := catalog.ValidateName(in.Collection); err != nil {
		return errorResult(err)
	}
	conn, err := t.conns.Get(connID)
	if err != nil {
		return errorResult(err)
	}
	opts := t.opts
	if in.PageSize > 0 {
		opts.PageSize = in.PageSize
	}
	v, err := console.NewPartitionsView(transientViewID, conn.Catalog, conn.Target.Database, in.Collection, opts)
	if err != nil {
		return errorResult(err)
	}
	if err := v.Refresh(ctx); err != nil {
		return errorResult(err)
	}
	if in.Search != "" {
		v.Search(ctx, in.Search)
	}
	return render(v, in.OrderBy, in.Order, in.Page)
}

func (t *Tools) listProperties(ctx context.Context, connID string, in ListPropertiesInput) *mcp.CallToolResult {
	conn, err := t.conns.Get(connID)
	if err != nil {
		return errorResult(err)
	}
	opts := t.opts
	if in.PageSize > 0 {
		opts.PageSize = in.PageSize
	}
	v, err := console.NewPropertiesView(transientViewID, conn.Catalog, conn.Target.Database, in.Type, in.Target, opts)
	if err != nil {
		return errorResult(err)
	}
	if err := v.Refresh(ctx); err != nil {
		return errorResult(err)
	}
	return render(v, in.OrderBy, in.Order, in.Page)
}

// render applies sort and page to v and returns its snapshot.
func render(v console.View, orderBy, order string, page int) *mcp.CallToolResult {
	if orderBy != "" {
		o, ok := grid.ParseOrder(order)
		if !ok {
			o = grid.Ascending
		}
		if !v.SetSort(orderBy, o) {
			return errorResult(fmt.Errorf("column %q is not sortable", orderBy))
		}
	}
	v.SetPage(page)

	data, err := json.Marshal(v.Snapshot())
	if err != nil {
		return errorResult(err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	slog.Debug("mcp tool failed", "error", err)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
