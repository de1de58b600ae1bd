package storage

import (
	"errors"
	"fmt"

	"github.com/kbukum/canvasflow/util"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

const (
	DefaultBasePath    = "./data/artifacts"
	DefaultRegion      = "us-east-1"
	DefaultMaxFileSize = int64(20 << 20)
)

// Config is the "storage" section: where uploads and generated artifacts
// are persisted.
type Config struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider string `yaml:"provider" mapstructure:"provider"`

	// local
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	// s3; empty keys fall back to the default AWS credential chain
	Bucket         string `yaml:"bucket" mapstructure:"bucket"`
	Region         string `yaml:"region" mapstructure:"region"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey      string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`

	// PublicURL replaces the backend URL as the prefix of returned artifact
	// URLs, e.g. a CDN or the API's own artifact route.
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`
	// MaxFileSize is a size string such as "20MB".
	MaxFileSize string `yaml:"max_file_size" mapstructure:"max_file_size"`
}

func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "20MB"
	}
}

// MaxFileBytes is MaxFileSize in bytes, DefaultMaxFileSize when unset or
// unparseable.
func (c *Config) MaxFileBytes() int64 {
	return util.ParseSize(c.MaxFileSize, DefaultMaxFileSize)
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
		return nil
	case ProviderS3:
		return c.validateS3()
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
}

func (c *Config) validateS3() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("bucket is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, errors.New("access_key and secret_key must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("storage: invalid s3 config: %w", errors.Join(errs...))
	}
	return nil
}
