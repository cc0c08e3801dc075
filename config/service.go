package config

import (
	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/validation"
)

// Environments accepted by ServiceConfig.Validate.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig holds what every previewkit binary shares: its identity
// and its logging. Application configs embed it with squash so the keys sit
// at the top level of the file:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Producers int `yaml:"producers" mapstructure:"producers"`
//	}
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	// Debug lowers the default log level and prints the startup summary.
	Debug   bool          `yaml:"debug" mapstructure:"debug"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig lets bootstrap reach the embedded base of any config.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate reports every problem of the base fields at once.
func (c *ServiceConfig) Validate() error {
	v := validation.New().
		Required("config.name", c.Name).
		OneOf("config.environment", c.Environment, Environments...)
	if err := c.Logging.Validate(); err != nil {
		v.AddError("config.logging", err.Error())
	}
	return v.Validate()
}
