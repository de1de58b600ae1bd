package kafka

import (
	"fmt"
	"slices"
	"time"
)

var saslMechanisms = []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"}

// Config is the "kafka" section. Run lifecycle events go to Topic.
type Config struct {
	Enabled bool     `yaml:"enabled" mapstructure:"enabled"`
	Name    string   `yaml:"name" mapstructure:"name"`
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`

	TLS  TLSConfig  `yaml:"tls" mapstructure:"tls"`
	SASL SASLConfig `yaml:"sasl" mapstructure:"sasl"`

	// Compression is none, gzip, snappy, lz4 or zstd.
	Compression  string `yaml:"compression" mapstructure:"compression"`
	Retries      int    `yaml:"retries" mapstructure:"retries"`
	BatchSize    int    `yaml:"batch_size" mapstructure:"batch_size"`
	RequiredAcks int    `yaml:"required_acks" mapstructure:"required_acks"`

	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MetadataTTL  time.Duration `yaml:"metadata_ttl" mapstructure:"metadata_ttl"`
}

type TLSConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	SkipVerify bool   `yaml:"skip_verify" mapstructure:"skip_verify"`
	CAFile     string `yaml:"ca_file" mapstructure:"ca_file"`
	CertFile   string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile    string `yaml:"key_file" mapstructure:"key_file"`
}

type SASLConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Mechanism string `yaml:"mechanism" mapstructure:"mechanism"`
	Username  string `yaml:"username" mapstructure:"username"`
	Password  string `yaml:"password" mapstructure:"password"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "kafka"
	}
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.Topic == "" {
		c.Topic = "canvasflow.runs"
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1
	}
	// node updates are small and should reach consumers quickly
	setDuration(&c.BatchTimeout, 50*time.Millisecond)
	setDuration(&c.WriteTimeout, 10*time.Second)
	setDuration(&c.DialTimeout, 10*time.Second)
	setDuration(&c.IdleTimeout, 30*time.Second)
	setDuration(&c.MetadataTTL, 6*time.Second)
	if c.SASL.Enabled && c.SASL.Mechanism == "" {
		c.SASL.Mechanism = "PLAIN"
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

// Validate only checks an enabled config.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case len(c.Brokers) == 0:
		return fmt.Errorf("kafka brokers are required")
	case c.Topic == "":
		return fmt.Errorf("kafka topic is required")
	case c.Retries <= 0:
		return fmt.Errorf("retries must be > 0")
	case c.BatchSize <= 0:
		return fmt.Errorf("batch_size must be > 0")
	case c.WriteTimeout <= 0 || c.DialTimeout <= 0:
		return fmt.Errorf("write_timeout and dial_timeout must be > 0")
	}
	if c.SASL.Enabled {
		if !slices.Contains(saslMechanisms, c.SASL.Mechanism) {
			return fmt.Errorf("unsupported SASL mechanism: %s", c.SASL.Mechanism)
		}
		if c.SASL.Username == "" {
			return fmt.Errorf("SASL username is required")
		}
	}
	return nil
}
