package capability

import (
	"fmt"
	"os"
	"time"

	"github.com/kbukum/canvasflow/resilience"
)

const (
	DefaultFalBaseURL    = "https://queue.fal.run"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	defaultPollInterval    = time.Second
	defaultSimulate3DDelay = 2 * time.Second
	defaultTimeout         = 10 * time.Minute
	defaultRequestTimeout  = 60 * time.Second
)

// Config configures the generation backends.
type Config struct {
	FalKey        string `yaml:"fal_key" mapstructure:"fal_key"`
	FalBaseURL    string `yaml:"fal_base_url" mapstructure:"fal_base_url"`
	GeminiKey     string `yaml:"gemini_key" mapstructure:"gemini_key"`
	GeminiBaseURL string `yaml:"gemini_base_url" mapstructure:"gemini_base_url"`

	// Simulate3D answers 3D requests locally instead of calling fal.
	// Unset means true.
	Simulate3D      *bool         `yaml:"simulate_3d" mapstructure:"simulate_3d"`
	Simulate3DDelay time.Duration `yaml:"simulate_3d_delay" mapstructure:"simulate_3d_delay"`

	// PollInterval is the wait between fal queue status checks.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	// Timeout bounds one whole invocation, queue wait included.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	Resilience *resilience.Config `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills zero values. FAL_KEY and GEMINI_API_KEY are read from
// the environment when the keys are not configured.
func (c *Config) ApplyDefaults() {
	if c.FalKey == "" {
		c.FalKey = os.Getenv("FAL_KEY")
	}
	if c.GeminiKey == "" {
		c.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.FalBaseURL == "" {
		c.FalBaseURL = DefaultFalBaseURL
	}
	if c.GeminiBaseURL == "" {
		c.GeminiBaseURL = DefaultGeminiBaseURL
	}
	if c.Simulate3D == nil {
		simulate := true
		c.Simulate3D = &simulate
	}
	if c.Simulate3DDelay == 0 {
		c.Simulate3DDelay = defaultSimulate3DDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Simulate3DDelay < 0 {
		return fmt.Errorf("capabilities.simulate_3d_delay must not be negative")
	}
	if c.Timeout < c.PollInterval {
		return fmt.Errorf("capabilities.timeout (%s) must be at least poll_interval (%s)", c.Timeout, c.PollInterval)
	}
	return nil
}

// SimulatesThreeD reports whether 3D requests are answered locally.
func (c *Config) SimulatesThreeD() bool {
	return c.Simulate3D == nil || *c.Simulate3D
}

// pollRetry is the retry policy FalClient applies to its own status and
// response fetches.
func (c *Config) pollRetry() resilience.RetryConfig {
	if c.Resilience != nil && c.Resilience.Retry != nil {
		return *c.Resilience.Retry
	}
	return *resilience.DefaultConfig(BackendFal).Retry
}

func (c *Config) resilienceFor(name string) resilience.Config {
	if c.Resilience == nil {
		return resilience.DefaultConfig(name)
	}
	// each backend gets its own copies so defaults pick up its name
	out := resilience.Config{}
	if r := c.Resilience.Retry; r != nil {
		cp := *r
		out.Retry = &cp
	}
	if cb := c.Resilience.CircuitBreaker; cb != nil {
		cp := *cb
		cp.Name = name
		out.CircuitBreaker = &cp
	}
	if rl := c.Resilience.RateLimiter; rl != nil {
		cp := *rl
		cp.Name = name
		out.RateLimiter = &cp
	}
	if b := c.Resilience.Bulkhead; b != nil {
		cp := *b
		cp.Name = name
		out.Bulkhead = &cp
	}
	return out
}
