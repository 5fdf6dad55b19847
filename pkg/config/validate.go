package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/vdbconsole/pkg/auth/session"
)

// maxPageSize bounds the page size a grid may be configured with.
const maxPageSize = 1000

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}

	switch c.Backend.Type {
	case BackendMemory, BackendMilvus:
		// valid
	case BackendPostgres:
		if c.Backend.Postgres.DSN == "" && c.Backend.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("backend.postgres.dsn or backend.postgres.dsn_file is required when backend.type is \"postgres\""))
		}
		if c.Backend.Postgres.MaxConns < 0 {
			errs = append(errs, fmt.Errorf("backend.postgres.max_conns must be >= 0, got %d", c.Backend.Postgres.MaxConns))
		}
	default:
		errs = append(errs, fmt.Errorf("backend.type must be \"memory\", \"postgres\" or \"milvus\", got %q", c.Backend.Type))
	}

	if c.Backend.Type == BackendMilvus && c.Backend.Milvus.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.milvus.timeout must be > 0, got %v", c.Backend.Milvus.Timeout))
	}

	if c.Grid.PageSize <= 0 || c.Grid.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("grid.page_size must be in 1..%d, got %d", maxPageSize, c.Grid.PageSize))
	}
	if c.Grid.DateLayout == "" {
		errs = append(errs, fmt.Errorf("grid.date_layout must not be empty"))
	}

	if c.Console.MaxViews < 0 {
		errs = append(errs, fmt.Errorf("console.max_views must be >= 0, got %d", c.Console.MaxViews))
	}

	if s := c.Auth.SessionSecret; s != "" && len(s) < session.MinSecretLength {
		errs = append(errs, fmt.Errorf("auth.session_secret must be at least %d bytes, got %d", session.MinSecretLength, len(s)))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.session_ttl must be > 0, got %v", c.Auth.SessionTTL))
	}
	if c.Auth.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("auth.requests_per_minute must be >= 0, got %d", c.Auth.RequestsPerMinute))
	}
	if c.Auth.ConnectAttempts < 0 {
		errs = append(errs, fmt.Errorf("auth.connect_attempts must be >= 0, got %d", c.Auth.ConnectAttempts))
	}
	if c.Auth.ConnectAttempts > 0 && c.Auth.ConnectWindow <= 0 {
		errs = append(errs, fmt.Errorf("auth.connect_window must be > 0 when connect_attempts is set"))
	}

	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path must start with \"/\", got %q", c.MCP.Path))
	}
	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToLower(c.Debug.Format) {
	case "text", "json", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("debug.format must be \"text\" or \"json\", got %q", c.Debug.Format))
	}

	return errors.Join(errs...)
}
