package server

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/kbukum/canvasflow/server/middleware"
)

// Config is the "server" section.
type Config struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxBodySize is a size string such as "25MB".
	MaxBodySize string                `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORS        middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	// GenerateRateLimit caps /api/generate calls per client per minute.
	GenerateRateLimit int `yaml:"generate_rate_limit" mapstructure:"generate_rate_limit"`
}

func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		// synchronous /api/workflows/execute waits on every generation call
		c.WriteTimeout = 10 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = time.Minute
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "25MB"
	}
	if c.GenerateRateLimit == 0 {
		c.GenerateRateLimit = 60
	}
	c.CORS.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
		"idle_timeout":  c.IdleTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("server.%s must be non-negative (got: %s)", name, d)
		}
	}
	if c.GenerateRateLimit < 0 {
		return fmt.Errorf("server.generate_rate_limit must be non-negative (got: %d)", c.GenerateRateLimit)
	}
	return nil
}

// Addr returns the listen address; an empty Host listens on all interfaces.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
