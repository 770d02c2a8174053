/*
Package config loads server settings.

SOURCES (later wins):
  1. Defaults
  2. .env in the working directory, if present
  3. Environment variables
  4. Command-line flags

ENVIRONMENT:
  PORT               HTTP port (default 8080)
  DB_DRIVER          sqlite | postgres (default sqlite)
  DB_PATH            SQLite file, ":memory:" for in-memory (default overtime.db)
  DATABASE_URL       PostgreSQL DSN, required when DB_DRIVER=postgres
  MIN_BALANCE_HOURS  Default floor for compensation checks (default 0)
  VERIFY_ON_READ     Recompute live on every read (default false)
  REBUILD_INTERVAL   Rollover sweep interval (default 1h)
  LOG_LEVEL          debug | info | warn | error (default info)
  CORS_ORIGINS       Comma-separated allowed origins

FLAGS:
  -port, -driver, -db, -verify override the matching variables.
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Engine   EngineConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Port        int
	CORSOrigins []string
}

type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

type EngineConfig struct {
	MinBalance      decimal.Decimal
	VerifyOnRead    bool
	RebuildInterval time.Duration
}

// Load reads the configuration. args are the command-line arguments without
// the program name.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "")),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", DriverSQLite),
			Path:   getEnv("DB_PATH", "overtime.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
	}

	var err error
	if cfg.Server.Port, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Engine.VerifyOnRead, err = getEnvBool("VERIFY_ON_READ", false); err != nil {
		return nil, err
	}
	if cfg.Engine.MinBalance, err = decimal.NewFromString(getEnv("MIN_BALANCE_HOURS", "0")); err != nil {
		return nil, fmt.Errorf("MIN_BALANCE_HOURS: %w", err)
	}
	if cfg.Engine.RebuildInterval, err = time.ParseDuration(getEnv("REBUILD_INTERVAL", "1h")); err != nil {
		return nil, fmt.Errorf("REBUILD_INTERVAL: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "HTTP server port")
	fs.StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "database driver (sqlite|postgres)")
	fs.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "SQLite database path")
	fs.BoolVar(&cfg.Engine.VerifyOnRead, "verify", cfg.Engine.VerifyOnRead, "recompute balances live on every read")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Engine.RebuildInterval <= 0 {
		return fmt.Errorf("REBUILD_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
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
