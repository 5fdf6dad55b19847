// Package milvus provides a catalog backed by a live Milvus server, reached
// through its RESTful API (v2). Every call is a POST under /v2/vectordb with
// a JSON body; responses use the envelope {"code", "message", "data"}, where
// a non-zero code is an error.
package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/debug"
)

// DefaultTimeout bounds each REST call when the caller's context has no
// deadline.
const DefaultTimeout = 30 * time.Second

// Client talks to one Milvus server on behalf of one connection.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	token    string
	database string
}

var _ catalog.Catalog = (*Client)(nil)

// New creates a client for target. The bearer token is target.Token, or
// "user:password" when only credentials are given.
func New(target catalog.Target, httpClient *http.Client) (*Client, error) {
	addr := baseURL(target.Address)
	if addr == "" {
		return nil, fmt.Errorf("milvus: address is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	token := target.Token
	if token == "" && target.Username != "" {
		token = target.Username + ":" + target.Password
	}

	return &Client{
		BaseURL:    addr,
		HTTPClient: httpClient,
		token:      token,
		database:   target.Database,
	}, nil
}

// Dialer creates a Client per target and verifies it with a health check.
type Dialer struct {
	HTTPClient *http.Client

	// Allowed lists the addresses that may be dialed, compared after
	// normalization ("milvus:19530" equals "http://milvus:19530/"). Empty
	// allows any address.
	Allowed []string
}

// Dial implements catalog.Dialer.
func (d Dialer) Dial(ctx context.Context, target catalog.Target) (catalog.Catalog, error) {
	if !d.allows(target.Address) {
		return nil, fmt.Errorf("milvus %q: %w", target.Address, catalog.ErrTargetNotAllowed)
	}
	c, err := New(target, d.HTTPClient)
	if err != nil {
		return nil, err
	}
	if err := c.HealthCheck(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (d Dialer) allows(addr string) bool {
	if len(d.Allowed) == 0 {
		return true
	}
	want := baseURL(addr)
	for _, a := range d.Allowed {
		if baseURL(a) == want {
			return true
		}
	}
	return false
}

// baseURL normalizes an address to a scheme-qualified URL without a
// trailing slash.
func baseURL(addr string) string {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if addr != "" && !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return addr
}

// envelope is the common response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Error is a non-zero response code from Milvus.
type Error struct {
	Path    string
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("milvus %s: code %d: %s", e.Path, e.Code, e.Message)
}

// Unwrap maps well-known messages to catalog sentinels.
func (e *Error) Unwrap() error {
	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, "not found"), strings.Contains(msg, "not exist"):
		return catalog.ErrNotFound
	case strings.Contains(msg, "already exist"):
		return catalog.ErrConflict
	case strings.Contains(msg, "default partition"):
		return catalog.ErrProtected
	case strings.Contains(msg, "invalid") && strings.Contains(msg, "name"):
		return catalog.ErrInvalidName
	}
	return nil
}

// dbName returns the database for ctx: the context's database when one is
// set explicitly, else the connection's.
func (c *Client) dbName(ctx context.Context) string {
	db := catalog.DatabaseFromContext(ctx)
	if db == catalog.DefaultDatabase && c.database != "" {
		return c.database
	}
	return db
}

// call posts body to /v2/vectordb/<path> and decodes the data field into
// out when out is non-nil.
func (c *Client) call(ctx context.Context, path string, body map[string]any, out any) error {
	if _, ok := body["dbName"]; !ok {
		body["dbName"] = c.dbName(ctx)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", path, err)
	}

	url := c.BaseURL + "/v2/vectordb/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	debug.Log("milvus", "request", "path", path, "db", body["dbName"])
	debug.Trace("milvus", "request body", "path", path, "body", debug.Truncate(string(data), 4096))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("milvus %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}
	debug.Trace("milvus", "response body", "path", path, "status", resp.StatusCode, "body", debug.Truncate(string(respBody), 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("milvus %s returned status %d: %s", path, resp.StatusCode, debug.Truncate(string(respBody), 512))
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	// Some Milvus releases report success as 200 instead of 0.
	if env.Code != 0 && env.Code != http.StatusOK {
		return &Error{Path: path, Code: env.Code, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parsing %s data: %w", path, err)
	}
	return nil
}

// HealthCheck lists databases, which every authenticated user may do.
func (c *Client) HealthCheck(ctx context.Context) error {
	var names []string
	if err := c.call(ctx, "databases/list", map[string]any{}, &names); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.HTTPClient.CloseIdleConnections()
	return nil
}
