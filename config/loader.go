package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoaderConfig collects the LoadConfig options.
type LoaderConfig struct {
	FileSystem FileSystem
	// ConfigFile and EnvFile skip the search when set. A missing explicit
	// config file is an error.
	ConfigFile string
	EnvFile    string
	// EnvPrefix restricts env binding to variables named PREFIX_*.
	EnvPrefix string
	Flags     *pflag.FlagSet
	// FlagKeys maps flag names to config keys. An empty key leaves the flag
	// unbound; unlisted flags bind to their name with dashes as underscores.
	FlagKeys map[string]string
}

// LoaderOption customizes LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the OS filesystem, mostly for tests.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix only binds environment variables named PREFIX_*.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) }
}

// WithFlags overlays the flags the user actually set on the command line.
func WithFlags(fs *pflag.FlagSet, keys map[string]string) LoaderOption {
	return func(lc *LoaderConfig) {
		lc.Flags = fs
		lc.FlagKeys = keys
	}
}

// LoadConfig fills cfg from, lowest priority first, the YAML file, the .env
// file, the environment and explicitly set flags.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: osFS{}}
	for _, opt := range opts {
		opt(&lc)
	}

	configFile, envFile := locate(lc.FileSystem, serviceName, lc.ConfigFile, lc.EnvFile)
	v := viper.New()

	switch {
	case configFile == "":
	case lc.FileSystem.Exists(configFile):
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
	case lc.ConfigFile != "":
		return fmt.Errorf("config file %s not found", configFile)
	}

	if envFile != "" && lc.FileSystem.Exists(envFile) {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	overlayEnv(v, lc.EnvPrefix)
	if lc.Flags != nil {
		overlayFlags(v, lc.Flags, lc.FlagKeys)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config for %s: %w", serviceName, err)
	}
	return nil
}
