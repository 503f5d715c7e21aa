// Package config loads irgate settings from IRGATE_* environment variables,
// with optional command-line overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "IRGATE_"

// Catalog modes.
const (
	CatalogModeSnapshot = "snapshot" // load the schema once at startup
	CatalogModeLive     = "live"     // query the database on every lookup
)

// Config represents the application configuration.
type Config struct {
	Catalog CatalogConfig `json:"catalog"`
	Server  ServerConfig  `json:"server"`
	Audit   AuditConfig   `json:"audit"`
	Compile CompileConfig `json:"compile"`
	Logging LoggingConfig `json:"logging"`
}

// CatalogConfig selects the database the schema is read from.
type CatalogConfig struct {
	Driver string `json:"driver" env:"CATALOG_DRIVER" envDefault:"sqlite3"`             // sqlite3, duckdb
	DSN    string `json:"dsn"    env:"CATALOG_DSN"    envDefault:"examples/db.sqlite"` // file path or driver DSN
	Mode   string `json:"mode"   env:"CATALOG_MODE"   envDefault:"snapshot"`           // snapshot, live
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	ListenAddr     string   `json:"listen_addr"     env:"LISTEN_ADDR"     envDefault:":8000"`
	CORSOrigins    []string `json:"cors_origins"    env:"CORS_ORIGINS"    envSeparator:","`
	MaxBodyBytes   int64    `json:"max_body_bytes"  env:"MAX_BODY_BYTES"  envDefault:"1048576"`
	ReadTimeoutSec int      `json:"read_timeout"    env:"READ_TIMEOUT"    envDefault:"10"`
}

// AuditConfig locates the translation audit log. An empty path disables it.
type AuditConfig struct {
	Path string `json:"path" env:"AUDIT_DB"`
}

// CompileConfig toggles the opt-in pipeline behaviours.
type CompileConfig struct {
	EscapeLiterals bool `json:"escape_literals" env:"ESCAPE_LITERALS" envDefault:"false"`
	RejectJoins    bool `json:"reject_joins"    env:"REJECT_JOINS"    envDefault:"false"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"` // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"` // text, json
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	return LoadWithOverrides(nil)
}

// LoadWithOverrides reads configuration from the environment, then applies
// flag overrides keyed by flag name. Empty strings are not applied.
func LoadWithOverrides(flagOverrides map[string]any) (*Config, error) {
	return load(env.Options{Prefix: EnvPrefix}, flagOverrides)
}

func load(opts env.Options, flagOverrides map[string]any) (*Config, error) {
	cfg := &Config{}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	applyFlagOverrides(cfg, flagOverrides)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyFlagOverrides applies command-line flag overrides to configuration.
func applyFlagOverrides(cfg *Config, overrides map[string]any) {
	for key, value := range overrides {
		switch v := value.(type) {
		case string:
			if v == "" {
				continue
			}
			switch key {
			case "catalog-driver":
				cfg.Catalog.Driver = v
			case "catalog-dsn":
				cfg.Catalog.DSN = v
			case "catalog-mode":
				cfg.Catalog.Mode = v
			case "listen":
				cfg.Server.ListenAddr = v
			case "audit-db":
				cfg.Audit.Path = v
			case "log-level":
				cfg.Logging.Level = v
			case "log-format":
				cfg.Logging.Format = v
			}
		case bool:
			switch key {
			case "escape-literals":
				cfg.Compile.EscapeLiterals = cfg.Compile.EscapeLiterals || v
			case "reject-joins":
				cfg.Compile.RejectJoins = cfg.Compile.RejectJoins || v
			case "verbose":
				if v {
					cfg.Logging.Level = "debug"
				}
			}
		}
	}
}

// validate checks the configuration for common errors.
func validate(cfg *Config) error {
	switch cfg.Catalog.Driver {
	case "sqlite3", "sqlite", "duckdb":
	default:
		return fmt.Errorf("invalid catalog driver: %s (must be sqlite3 or duckdb)", cfg.Catalog.Driver)
	}

	switch cfg.Catalog.Mode {
	case CatalogModeSnapshot, CatalogModeLive:
	default:
		return fmt.Errorf("invalid catalog mode: %s (must be snapshot or live)", cfg.Catalog.Mode)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Logging.Format)
	}

	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive: %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("read timeout must be positive: %d", cfg.Server.ReadTimeoutSec)
	}

	return nil
}
