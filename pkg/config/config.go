// Package config provides unified configuration for the console server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (VDBCONSOLE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/vdbconsole/pkg/grid"
)

// Backend types.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMilvus   = "milvus"
)

// Config holds all configuration for the console server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Backend       BackendConfig       `yaml:"backend"`
	Grid          GridConfig          `yaml:"grid"`
	Console       ConsoleConfig       `yaml:"console"`
	Auth          AuthConfig          `yaml:"auth"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Debug         DebugConfig         `yaml:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 60s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// BackendConfig selects where catalogs come from.
type BackendConfig struct {
	Type     string         `yaml:"type"` // "memory", "postgres" or "milvus", default: "memory"
	Memory   MemoryConfig   `yaml:"memory"`
	Postgres PostgresConfig `yaml:"postgres"`
	Milvus   MilvusConfig   `yaml:"milvus"`
}

// MemoryConfig holds in-memory backend settings.
type MemoryConfig struct {
	// Seed loads a sample collection at startup.
	Seed bool `yaml:"seed"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// MilvusConfig holds settings for dialing Milvus REST endpoints.
type MilvusConfig struct {
	Timeout time.Duration `yaml:"timeout"` // default: 30s

	// AllowedAddresses restricts the addresses callers may connect to.
	// Empty allows any address.
	AllowedAddresses []string `yaml:"allowed_addresses"`
}

// GridConfig holds the defaults of new grid views.
type GridConfig struct {
	PageSize        int    `yaml:"page_size"`        // default: 10
	DateLayout      string `yaml:"date_layout"`      // default: "2006-01-02 15:04:05"
	RetainSelection bool   `yaml:"retain_selection"` // default: false
}

// ConsoleConfig holds view registry settings.
type ConsoleConfig struct {
	MaxViews int `yaml:"max_views"` // per connection, default: 32
}

// AuthConfig holds session settings.
type AuthConfig struct {
	// SessionSecret signs session tokens. When empty a random secret is
	// generated at startup and sessions do not survive a restart.
	SessionSecret     string        `yaml:"session_secret"`
	SessionSecretFile string        `yaml:"session_secret_file"` // _file variant for session_secret
	SessionTTL        time.Duration `yaml:"session_ttl"`         // default: 12h

	// RequestsPerMinute limits requests per session. 0 disables.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// ConnectAttempts limits connect attempts per remote host within
	// ConnectWindow. 0 disables.
	ConnectAttempts int           `yaml:"connect_attempts"` // default: 10
	ConnectWindow   time.Duration `yaml:"connect_window"`   // default: 1m
}

// MCPConfig holds settings of the MCP tool endpoint.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/mcp"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// DebugConfig holds logging settings. VDBCONSOLE_DEBUG and
// VDBCONSOLE_LOG_LEVEL take precedence.
type DebugConfig struct {
	Categories string `yaml:"categories"` // comma separated, e.g. "grid,milvus"
	Level      string `yaml:"level"`      // default: "INFO"
	Format     string `yaml:"format"`     // "text" or "json", default: "text"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			Type: BackendMemory,
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
			Milvus: MilvusConfig{
				Timeout: 30 * time.Second,
			},
		},
		Grid: GridConfig{
			PageSize:   grid.DefaultPageSize,
			DateLayout: grid.DefaultDateLayout,
		},
		Console: ConsoleConfig{
			MaxViews: 32,
		},
		Auth: AuthConfig{
			SessionTTL:      12 * time.Hour,
			ConnectAttempts: 10,
			ConnectWindow:   time.Minute,
		},
		MCP: MCPConfig{
			Enabled: true,
			Path:    "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Debug: DebugConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
