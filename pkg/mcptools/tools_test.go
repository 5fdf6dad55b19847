package mcptools

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rhuss/vdbconsole/pkg/api"
	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/catalog/memory"
	"github.com/rhuss/vdbconsole/pkg/console"
)

// setupSession connects a client to the tools of a fresh connection via
// in-memory transports.
func setupSession(t *testing.T) (*mcp.ClientSession, *console.Connections, string) {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	err := store.Seed(ctx,
		catalog.Collection{Name: "books", Schema: &catalog.Schema{Fields: []catalog.Field{
			{Name: "id", DataType: "Int64", IsPrimaryKey: true},
		}}},
		catalog.Partition{Name: "fiction", RowCount: 1200},
		catalog.Partition{Name: "poetry", RowCount: 30},
		catalog.Partition{Name: "science", RowCount: 450},
	)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	conns := console.NewConnections(store.Dialer(), console.Config{})
	t.Cleanup(func() { conns.Close() })
	conn, err := conns.Connect(ctx, catalog.Target{Address: "memory"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	server := New(conns, console.Options{}, "test").Server(conn.ID)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session, conns, conn.ID
}

type listing struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Grid  struct {
		Rows []struct {
			Key   string            `json:"key"`
			Cells map[string]string `json:"cells"`
		} `json:"rows"`
		Total       int    `json:"total"`
		CurrentPage int    `json:"current_page"`
		OrderBy     string `json:"order_by"`
		Order       string `json:"order"`
	} `json:"grid"`
}

func (l listing) keys() []string {
	out := make([]string, len(l.Grid.Rows))
	for i, r := range l.Grid.Rows {
		out[i] = r.Key
	}
	return out
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("content = %d items, want 1", len(result.Content))
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *mcp.TextContent", result.Content[0])
	}
	return result, text.Text
}

func decodeListing(t *testing.T, text string) listing {
	t.Helper()
	var l listing
	if err := json.Unmarshal([]byte(text), &l); err != nil {
		t.Fatalf("decoding %s: %v", text, err)
	}
	return l
}

func TestToolsAreListed(t *testing.T) {
	session, _, _ := setupSession(t)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)
	if want := []string{ToolListPartitions, ToolListProperties}; !slices.Equal(names, want) {
		t.Errorf("tools = %v, want %v", names, want)
	}
}

func TestListPartitions_SortAndPage(t *testing.T) {
	session, _, _ := setupSession(t)

	res, text := call(t, session, ToolListPartitions, map[string]any{
		"collection": "books",
		"order_by":   "rowCount",
		"order":      "desc",
		"page_size":  2,
	})
	if res.IsError {
		t.Fatalf("tool error: %s", text)
	}
	l := decodeListing(t, text)
	if l.Kind != api.ViewPartitions {
		t.Errorf("kind = %q", l.Kind)
	}
	if want := []string{"fiction", "science"}; !slices.Equal(l.keys(), want) {
		t.Errorf("page 0 = %v, want %v", l.keys(), want)
	}
	if l.Grid.Total != 4 || l.Label != "1-2 of 4 partitions" {
		t.Errorf("total = %d, label = %q", l.Grid.Total, l.Label)
	}

	_, text = call(t, session, ToolListPartitions, map[string]any{
		"collection": "books",
		"order_by":   "rowCount",
		"order":      "desc",
		"page_size":  2,
		"page":       7,
	})
	l = decodeListing(t, text)
	if l.Grid.CurrentPage != 1 || !slices.Equal(l.keys(), []string{"poetry", "_default"}) {
		t.Errorf("clamped page = %d %v", l.Grid.CurrentPage, l.keys())
	}
}

func TestListPartitions_Search(t *testing.T) {
	session, _, _ := setupSession(t)

	_, text := call(t, session, ToolListPartitions, map[string]any{"collection": "books", "search": "c"})
	l := decodeListing(t, text)
	got := l.keys()
	slices.Sort(got)
	if want := []string{"fiction", "science"}; !slices.Equal(got, want) {
		t.Errorf("search = %v, want %v", got, want)
	}
}

func TestListPartitions_Errors(t *testing.T) {
	session, _, _ := setupSession(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown collection", map[string]any{"collection": "movies"}},
		{"invalid name", map[string]any{"collection": "no spaces"}},
		{"unsortable column", map[string]any{"collection": "books", "order_by": "id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, text := call(t, session, ToolListPartitions, tt.args)
			if !res.IsError {
				t.Errorf("expected tool error, got %s", text)
			}
		})
	}
}

func TestListProperties(t *testing.T) {
	session, _, _ := setupSession(t)

	res, text := call(t, session, ToolListProperties, map[string]any{"type": "database"})
	if res.IsError {
		t.Fatalf("tool error: %s", text)
	}
	l := decodeListing(t, text)
	if l.Grid.Total != len(catalog.DatabaseDefaults()) {
		t.Errorf("total = %d, want %d", l.Grid.Total, len(catalog.DatabaseDefaults()))
	}

	res, text = call(t, session, ToolListProperties, map[string]any{"type": "index"})
	if !res.IsError {
		t.Errorf("unknown type should fail, got %s", text)
	}
}

func TestToolsFollowConnection(t *testing.T) {
	session, conns, connID := setupSession(t)

	if err := conns.Disconnect(connID); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	res, text := call(t, session, ToolListPartitions, map[string]any{"collection": "books"})
	if !res.IsError {
		t.Errorf("closed connection should fail, got %s", text)
	}
}
