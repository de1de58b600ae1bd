package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/canvasflow/logger"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var environments = []string{EnvDevelopment, EnvStaging, EnvProduction}

// ServiceConfig holds the top-level keys shared by every canvasflow
// command. AppConfig embeds it with mapstructure squash.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig lets bootstrap reach the shared keys of any config
// that embeds ServiceConfig.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "canvasflow"
	}
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	c.Debug = c.Debug || c.Environment == EnvDevelopment
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("config.name is required")
	case !slices.Contains(environments, c.Environment):
		return fmt.Errorf("config.environment must be one of %v (got: %s)", environments, c.Environment)
	case c.IsProduction() && c.Debug:
		return fmt.Errorf("config.debug cannot be enabled in %s", EnvProduction)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

func (c *ServiceConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}
