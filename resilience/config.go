package resilience

import "time"

// Config groups the optional policies applied to one outbound dependency.
// A nil policy is skipped.
type Config struct {
	Retry          *RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    *RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
	Bulkhead       *BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// IsEmpty reports whether no policy is configured.
func (c Config) IsEmpty() bool {
	return c.Retry == nil && c.CircuitBreaker == nil && c.RateLimiter == nil && c.Bulkhead == nil
}

// ApplyDefaults fills zero values of every configured policy.
func (c *Config) ApplyDefaults(name string) {
	if c.Retry != nil {
		c.Retry.applyDefaults()
	}
	if c.CircuitBreaker != nil {
		if c.CircuitBreaker.Name == "" {
			c.CircuitBreaker.Name = name
		}
		c.CircuitBreaker.applyDefaults()
	}
	if c.RateLimiter != nil {
		if c.RateLimiter.Name == "" {
			c.RateLimiter.Name = name
		}
		c.RateLimiter.applyDefaults()
	}
	if c.Bulkhead != nil {
		if c.Bulkhead.Name == "" {
			c.Bulkhead.Name = name
		}
		c.Bulkhead.applyDefaults()
	}
}

// DefaultConfig is the policy set used for generation endpoints when the
// config file does not override it. Generation calls are slow and billed,
// so retries are few and spaced out.
func DefaultConfig(name string) Config {
	retry := DefaultRetryConfig()
	retry.MaxAttempts = 2
	retry.InitialBackoff = 500 * time.Millisecond
	cb := DefaultCircuitBreakerConfig(name)
	return Config{Retry: &retry, CircuitBreaker: &cb}
}
