package logger

import (
	"fmt"
	"slices"
)

// FormatJSON writes one JSON object per event.
const FormatJSON = "json"

var (
	levels  = []string{"trace", "debug", "info", "warn", "error", "fatal"}
	formats = []string{FormatJSON, FormatConsole, FormatPretty}
)

// Config selects level, format and destinations of the log.
//
// A typical collector setup keeps stdout for run output and sends the
// full log and the error log to files:
//
//	logging:
//	  level: debug
//	  output: debug.log
//	  error_output: except.log
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// Output is "stdout", "stderr" or a file path.
	Output string `yaml:"output" mapstructure:"output"`
	// ErrorOutput is a file that receives a copy of every error-level event.
	ErrorOutput string `yaml:"error_output" mapstructure:"error_output"`
	NoColor     bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp   bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller      bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills in zero-value fields. Timestamps are always on.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	c.Timestamp = true
}

func (c *Config) Validate() error {
	if !slices.Contains(levels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", levels, c.Level)
	}
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", formats, c.Format)
	}
	switch c.ErrorOutput {
	case "stdout", "stderr":
		return fmt.Errorf("logging.error_output must be a file path (got: %s)", c.ErrorOutput)
	}
	return nil
}
