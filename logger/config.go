package logger

import (
	"fmt"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config is the "logging" section of the service config.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// Output is stdout, stderr, or a file path opened for append.
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = zerolog.InfoLevel.String()
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	// run logs are correlated by time; never emit lines without one
	c.Timestamp = true
}

// Validate accepts any level zerolog can parse except the empty one.
func (c *Config) Validate() error {
	if lvl, err := zerolog.ParseLevel(c.Level); err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("logging.level %q is not a zerolog level", c.Level)
	}
	switch c.Format {
	case FormatJSON, FormatConsole:
		return nil
	default:
		return fmt.Errorf("logging.format must be %s or %s (got: %s)", FormatJSON, FormatConsole, c.Format)
	}
}
