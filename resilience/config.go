package resilience

import "time"

// Config groups the settings of every primitive so they can be loaded from
// a single config section.
type Config struct {
	Retry     RetryConfig          `yaml:"retry" mapstructure:"retry"`
	Breaker   CircuitBreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	RateLimit RateLimiterConfig    `yaml:"rate_limit" mapstructure:"rate_limit"`
	// MaxPerHost caps concurrent requests to one host. Zero disables the cap.
	MaxPerHost int `yaml:"max_per_host" mapstructure:"max_per_host" validate:"min=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.Retry.applyDefaults()
	c.Breaker.applyDefaults()
	c.RateLimit.applyDefaults()
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// clock returns now, or time.Now when now is nil.
func clock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
