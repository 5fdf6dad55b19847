package postgres

import "time"

// Config holds the catalog database settings.
type Config struct {
	// DSN is a PostgreSQL connection string,
	// e.g. "postgres://console:secret@db:5432/catalog?sslmode=require".
	DSN string

	// MaxConns caps the pool (default 10). The console issues short,
	// user-driven queries, so a small pool is enough.
	MaxConns int32

	// MinConns is kept idle (default 1).
	MinConns int32

	// MaxConnLifetime recycles connections (default 30 minutes).
	MaxConnLifetime time.Duration

	// ConnectTimeout bounds the initial ping (default 5 seconds).
	ConnectTimeout time.Duration

	// MigrateOnStart applies pending schema migrations in New.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 1
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
}
