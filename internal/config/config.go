// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"wip-tracker-service/internal/domain"
)

const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port              string
	DataDir           string
	GraphFile         string
	LotsFile          string
	StoreDriver       string
	SQLitePath        string
	DatabaseURL       string
	LanesPath         string
	RedisAddr         string
	RedisChannel      string
	LogLevel          string
	CORSOrigins       []string
	RepackOnDeparture bool
	Lanes             []domain.Lane
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load builds a Config from the environment. The lane layout comes from
// LANES_PATH when set, otherwise the built-in floor layout is used.
func Load() (*Config, error) {
	repack, err := strconv.ParseBool(Get("REPACK_ON_DEPARTURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("load config: REPACK_ON_DEPARTURE: %w", err)
	}

	cfg := &Config{
		Port:              Get("PORT", "3001"),
		DataDir:           Get("DATA_DIR", "data"),
		GraphFile:         Get("GRAPH_FILE", "db.json"),
		LotsFile:          Get("LOTS_FILE", "products.json"),
		StoreDriver:       strings.ToLower(Get("STORE_DRIVER", DriverJSON)),
		SQLitePath:        Get("SQLITE_PATH", "data/wip.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		LanesPath:         os.Getenv("LANES_PATH"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisChannel:      Get("REDIS_CHANNEL", "wip:lots"),
		LogLevel:          Get("LOG_LEVEL", "info"),
		CORSOrigins:       splitList(os.Getenv("CORS_ORIGINS")),
		RepackOnDeparture: repack,
		Lanes:             DefaultLanes(),
	}

	if cfg.LanesPath != "" {
		lanes, err := LoadLanes(cfg.LanesPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg.Lanes = lanes
	}

	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverJSON, DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver))
	}

	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}

	if err := ValidateLanes(c.Lanes); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
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

// SQLDSN returns the connection string for the configured SQL driver, or ""
// for the flat-file store.
func (c *Config) SQLDSN() string {
	switch c.StoreDriver {
	case DriverSQLite:
		return c.SQLitePath
	case DriverPostgres:
		return c.DatabaseURL
	default:
		return ""
	}
}
