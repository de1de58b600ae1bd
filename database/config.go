package database

import (
	"fmt"
	"time"
)

// Drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config configures the workflow store connection.
type Config struct {
	// Driver is "memory" (no database) or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// DSN is the sqlite data source, e.g. "canvasflow.db" or "file::memory:?cache=shared".
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	MaxRetries      int           `yaml:"max_retries" mapstructure:"max_retries"`
	AutoMigrate     bool          `yaml:"auto_migrate" mapstructure:"auto_migrate"`

	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold"`
	// LogLevel is silent, error, warn or info.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Driver == DriverSQLite && c.DSN == "" {
		c.DSN = "canvasflow.db"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 1
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.SlowQueryThreshold <= 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverSQLite:
	default:
		return fmt.Errorf("store.driver must be %q or %q (got: %s)", DriverMemory, DriverSQLite, c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("store.dsn is required for the %s driver", c.Driver)
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("store.max_idle_conns (%d) must be <= max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	return nil
}

// Enabled reports whether a database connection is needed.
func (c *Config) Enabled() bool {
	return c.Driver != "" && c.Driver != DriverMemory
}
