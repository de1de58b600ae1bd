package config

import (
	"fmt"

	"github.com/kbukum/canvasflow/capability"
	"github.com/kbukum/canvasflow/database"
	"github.com/kbukum/canvasflow/kafka"
	"github.com/kbukum/canvasflow/observability"
	"github.com/kbukum/canvasflow/redis"
	"github.com/kbukum/canvasflow/runs"
	"github.com/kbukum/canvasflow/server"
	"github.com/kbukum/canvasflow/storage"
)

// ArtifactRoute is where the API serves stored artifacts. Local storage
// without a public URL hands out links under it.
const ArtifactRoute = "/api/artifacts"

// AppConfig is the configuration of the canvasflow binary.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Capabilities  capability.Config    `yaml:"capabilities" mapstructure:"capabilities"`
	Store         database.Config      `yaml:"store" mapstructure:"store"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Kafka         kafka.Config         `yaml:"kafka" mapstructure:"kafka"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Runs          runs.Config          `yaml:"runs" mapstructure:"runs"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Capabilities.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Runs.ApplyDefaults()
	c.Observability.ApplyDefaults()

	if c.Storage.Provider == storage.ProviderLocal && c.Storage.PublicURL == "" {
		c.Storage.PublicURL = ArtifactRoute
	}
}

// Validate checks every section and names the first one that fails.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	for _, s := range []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"server", &c.Server},
		{"capabilities", &c.Capabilities},
		{"store", &c.Store},
		{"redis", &c.Redis},
		{"kafka", &c.Kafka},
		{"storage", &c.Storage},
		{"runs", &c.Runs},
		{"observability", &c.Observability},
	} {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("config.%s: %w", s.name, err)
		}
	}
	return nil
}
