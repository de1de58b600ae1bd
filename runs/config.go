package runs

import (
	"fmt"
	"time"
)

// Config bounds asynchronous runs. Durations are strings such as "5m".
type Config struct {
	// MaxConcurrent is the number of runs executing at once. Further runs
	// stay pending until a slot frees up or QueueTimeout passes.
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	QueueTimeout  string `yaml:"queue_timeout" mapstructure:"queue_timeout"`
	// RunTimeout caps a single run; the run fails as timed out.
	RunTimeout string `yaml:"run_timeout" mapstructure:"run_timeout"`
	// LockTTL is how long a workflow run lock survives a crashed holder.
	LockTTL string `yaml:"lock_ttl" mapstructure:"lock_ttl"`
	// ResultTTL is how long finished runs stay in the result cache.
	ResultTTL string `yaml:"result_ttl" mapstructure:"result_ttl"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.QueueTimeout == "" {
		c.QueueTimeout = "5m"
	}
	if c.RunTimeout == "" {
		c.RunTimeout = "15m"
	}
	if c.LockTTL == "" {
		c.LockTTL = "30m"
	}
	if c.ResultTTL == "" {
		c.ResultTTL = "24h"
	}
}

// Validate checks that the durations parse.
func (c *Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("runs max_concurrent must be > 0")
	}
	for _, d := range []struct{ name, val string }{
		{"queue_timeout", c.QueueTimeout},
		{"run_timeout", c.RunTimeout},
		{"lock_ttl", c.LockTTL},
		{"result_ttl", c.ResultTTL},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("invalid runs %s %q: %w", d.name, d.val, err)
		}
	}
	return nil
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
