package server

import (
	"time"

	"github.com/kbukum/previewkit/validation"
)

// DefaultAddr keeps the status server on the loopback interface.
const DefaultAddr = "127.0.0.1:8089"

// Config controls the optional status server. Timeouts are in seconds.
type Config struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr         string `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

func (c *Config) Validate() error {
	return validation.New().
		HostPort("status.addr", c.Addr).
		Min("status.read_timeout", c.ReadTimeout, 0).
		Min("status.write_timeout", c.WriteTimeout, 0).
		Min("status.idle_timeout", c.IdleTimeout, 0).
		Validate()
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
