package httpclient

import (
	"time"

	"github.com/kbukum/previewkit/resilience"
	"github.com/kbukum/previewkit/validation"
)

const (
	defaultTimeout             = 30 * time.Second
	defaultMaxBodyBytes        = 32 << 20
	defaultMaxIdleConnsPerHost = 8
	defaultUserAgent           = "previewkit"
)

// Config configures the HTTP client.
type Config struct {
	// Timeout bounds one attempt, including reading the body. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// MaxBodyBytes caps the size of a response body. Defaults to 32 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"min=0"`

	// MaxIdleConnsPerHost sizes the keep-alive pool per host.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host" validate:"min=0"`

	// DisableHTTP2 forces HTTP/1.1 even when the server offers h2.
	DisableHTTP2 bool `yaml:"disable_http2" mapstructure:"disable_http2"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Resilience configures retry, circuit breaking, rate limiting and the
	// per-host concurrency cap.
	Resilience resilience.Config `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	c.Resilience.ApplyDefaults()
}

// Validate reports every invalid field at once. Call it after ApplyDefaults.
func (c *Config) Validate() error {
	return validation.New().
		Custom(c.Timeout > 0, "http.timeout", "must be positive").
		Custom(c.MaxBodyBytes > 0, "http.max_body_bytes", "must be positive").
		Min("http.resilience.max_per_host", c.Resilience.MaxPerHost, 0).
		Range("http.resilience.retry.max_attempts", c.Resilience.Retry.MaxAttempts, 1, 10).
		Validate()
}
