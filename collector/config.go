package collector

import (
	"fmt"
	"strings"

	"github.com/kbukum/previewkit/config"
	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/httpclient"
	"github.com/kbukum/previewkit/observability"
	"github.com/kbukum/previewkit/server"
	"github.com/kbukum/previewkit/storage"
	"github.com/kbukum/previewkit/thumbnail"
	"github.com/kbukum/previewkit/validation"
)

// ServiceName names the application in logs, config files and telemetry.
const ServiceName = "collectpreviews"

const (
	defaultSize        = "100x100"
	defaultNamePattern = "%05d.jpeg"
)

// Config is the collector configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Input is the URL list file, one URL per line.
	Input string `yaml:"input" mapstructure:"input" validate:"required"`
	// Producers is the number of concurrent downloads.
	Producers int `yaml:"producers" mapstructure:"producers" validate:"min=1"`
	// Consumers is the number of thumbnail workers. Zero means Producers.
	Consumers int `yaml:"consumers" mapstructure:"consumers" validate:"min=0"`
	// Size is the bounding box of a thumbnail.
	Size string `yaml:"size" mapstructure:"size"`
	// Quality is the JPEG quality.
	Quality int `yaml:"quality" mapstructure:"quality" validate:"min=0,max=100"`
	// NamePattern formats the input index into a storage key.
	NamePattern string `yaml:"name_pattern" mapstructure:"name_pattern"`
	// MaxPixels rejects larger sources before decoding them.
	MaxPixels int `yaml:"max_pixels" mapstructure:"max_pixels" validate:"min=0"`
	// NoManifest skips writing manifest.json.
	NoManifest bool `yaml:"no_manifest" mapstructure:"no_manifest"`
	// Progress draws progress bars instead of per-file lines.
	Progress bool `yaml:"progress" mapstructure:"progress"`

	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	HTTP          httpclient.Config    `yaml:"http" mapstructure:"http"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Status        server.Config        `yaml:"status" mapstructure:"status"`
}

// ApplyDefaults fills in zero-value fields. Logs go to stderr unless
// configured otherwise, since stdout carries the run output.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Producers == 0 {
		c.Producers = 1
	}
	if c.Consumers == 0 {
		c.Consumers = c.Producers
	}
	if c.Size == "" {
		c.Size = defaultSize
	}
	if c.Quality == 0 {
		c.Quality = thumbnail.DefaultQuality
	}
	if c.MaxPixels == 0 {
		c.MaxPixels = thumbnail.DefaultMaxPixels
	}
	if c.NamePattern == "" {
		c.NamePattern = defaultNamePattern
	}

	c.Storage.ApplyDefaults()
	c.HTTP.ApplyDefaults()
	c.Status.ApplyDefaults()

	c.Observability.ServiceName = c.Name
	c.Observability.ServiceVersion = c.Version
	c.Observability.Environment = c.Environment
	c.Observability.ApplyDefaults()
}

// Validate checks the configuration. The size is checked first so that a
// malformed size is reported with its dedicated message.
func (c *Config) Validate() error {
	if _, err := thumbnail.ParseSize(c.Size); err != nil {
		return err
	}
	if err := c.ServiceConfig.Validate(); err != nil {
		return errors.Validation(err.Error()).WithCause(err)
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := checkNamePattern(c.NamePattern); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return errors.Validation(err.Error()).WithCause(err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return errors.Validation(err.Error()).WithCause(err)
	}
	if err := c.Observability.Validate(); err != nil {
		return errors.Validation(err.Error()).WithCause(err)
	}
	if c.Status.Enabled {
		if err := c.Status.Validate(); err != nil {
			return errors.Validation(err.Error()).WithCause(err)
		}
	}
	return nil
}

// ThumbnailSize returns the parsed Size. It must only be called on a
// validated config.
func (c *Config) ThumbnailSize() thumbnail.Size {
	return thumbnail.MustParseSize(c.Size)
}

// checkNamePattern requires exactly one integer verb and no path
// separators outside of it.
func checkNamePattern(pattern string) error {
	if strings.Count(pattern, "%") != 1 {
		return errors.InvalidInput("name_pattern", "must contain exactly one integer verb such as %05d")
	}
	name := fmt.Sprintf(pattern, 7)
	if strings.Contains(name, "%!") {
		return errors.InvalidInput("name_pattern", fmt.Sprintf("%q does not format an integer", pattern))
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return errors.InvalidInput("name_pattern", "must be a relative name")
	}
	return nil
}
