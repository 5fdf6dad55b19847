package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/vdbconsole/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, VDBCONSOLE_CONFIG env, ./config.yaml, /etc/vdbconsole/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. VDBCONSOLE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/vdbconsole/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("VDBCONSOLE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/vdbconsole/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
// Unknown keys are rejected so typos do not pass silently.
func loadYAMLFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnvOverrides maps environment variables to config fields.
// Unparseable numeric values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VDBCONSOLE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VDBCONSOLE_BACKEND"); v != "" {
		cfg.Backend.Type = v
	}
	if v := os.Getenv("VDBCONSOLE_POSTGRES_DSN"); v != "" {
		cfg.Backend.Postgres.DSN = v
	}
	if v := os.Getenv("VDBCONSOLE_MILVUS_ALLOWED_ADDRESSES"); v != "" {
		cfg.Backend.Milvus.AllowedAddresses = splitList(v)
	}
	if v := os.Getenv("VDBCONSOLE_MEMORY_SEED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Backend.Memory.Seed = b
		}
	}
	if v := os.Getenv("VDBCONSOLE_SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("VDBCONSOLE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Grid.PageSize = n
		}
	}
	if v := os.Getenv("VDBCONSOLE_MAX_VIEWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Console.MaxViews = n
		}
	}
	if v := os.Getenv("VDBCONSOLE_LOG_FORMAT"); v != "" {
		cfg.Debug.Format = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// backend.postgres.dsn_file -> backend.postgres.dsn
	if cfg.Backend.Postgres.DSNFile != "" && cfg.Backend.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Backend.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("backend.postgres.dsn_file: %w", err)
		}
		cfg.Backend.Postgres.DSN = val
	}

	// auth.session_secret_file -> auth.session_secret
	if cfg.Auth.SessionSecretFile != "" && cfg.Auth.SessionSecret == "" {
		val, err := readSecretFile(cfg.Auth.SessionSecretFile)
		if err != nil {
			return fmt.Errorf("auth.session_secret_file: %w", err)
		}
		cfg.Auth.SessionSecret = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
