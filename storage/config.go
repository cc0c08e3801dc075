package storage

import (
	"strings"

	"github.com/kbukum/previewkit/validation"
)

// Providers known to Validate. Each one has a backend package that registers
// its factory on import.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "."
	DefaultRegion   = "us-east-1"
)

// Config selects where thumbnails and manifests are written.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider" json:"provider" validate:"oneof=local s3"`

	// BasePath is the output directory of the local provider. The CLI
	// --dir flag sets it.
	BasePath string `yaml:"base_path" mapstructure:"base_path" json:"base_path"`

	// S3 settings. Endpoint points at S3-compatible services such as MinIO,
	// which usually also need ForcePathStyle.
	Bucket         string `yaml:"bucket" mapstructure:"bucket" json:"bucket"`
	Prefix         string `yaml:"prefix" mapstructure:"prefix" json:"prefix"`
	Region         string `yaml:"region" mapstructure:"region" json:"region"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style" json:"force_path_style"`

	// Static credentials. When empty the default AWS credential chain is used.
	AccessKey string `yaml:"access_key" mapstructure:"access_key" json:"-"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key" json:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the fields the selected provider needs.
func (c *Config) Validate() error {
	v := validation.New()
	switch c.Provider {
	case ProviderLocal:
		v.Required("storage.base_path", c.BasePath)
	case ProviderS3:
		v.Required("storage.bucket", c.Bucket)
		v.Required("storage.region", c.Region)
		v.Custom(!strings.HasPrefix(c.Prefix, "/"), "storage.prefix", "must not start with /")
		v.Custom((c.AccessKey == "") == (c.SecretKey == ""), "storage.secret_key",
			"access_key and secret_key must be set together")
	default:
		v.OneOf("storage.provider", c.Provider, ProviderLocal, ProviderS3)
	}
	return v.Validate()
}

// Location describes the output for logs and the startup summary, for
// example "local:/out" or "s3://bucket/prefix".
func (c Config) Location() string {
	if c.Provider == ProviderS3 {
		return "s3://" + c.Bucket + "/" + c.Prefix
	}
	return c.Provider + ":" + c.BasePath
}
