package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileSystem is the file access LoadConfig needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) LoadEnv(path string) error { return godotenv.Load(path) }

// locate returns the config and env files to read. Explicit paths are kept
// as given; otherwise the first existing candidate wins.
func locate(fs FileSystem, service, configFile, envFile string) (string, string) {
	if configFile == "" {
		configFile = firstExisting(fs,
			"./cmd/"+service+"/config.yml",
			"../cmd/"+service+"/config.yml",
			"./config/config.yml",
			"./config.yml",
		)
	}
	if envFile == "" {
		envFile = firstExisting(fs,
			"./.env."+service,
			"./cmd/"+service+"/.env",
			"./.env",
		)
	}
	return configFile, envFile
}

func firstExisting(fs FileSystem, paths ...string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// overlayEnv sets every config key an environment variable could address,
// so PREVIEWKIT_HTTP_TIMEOUT reaches http.timeout without a schema.
func overlayEnv(v *viper.Viper, prefix string) {
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			var found bool
			if name, found = strings.CutPrefix(name, prefix+"_"); !found {
				continue
			}
		}
		for _, key := range envKeys(name) {
			v.Set(key, value)
		}
	}
}

// envKeys lists the candidate keys for an env var name, flat key first:
//
//	STORAGE_BASE_PATH -> storage_base_path, storage.base.path, storage.base_path
func envKeys(name string) []string {
	flat := strings.ToLower(name)
	parts := strings.Split(flat, "_")
	keys := []string{flat}
	if len(parts) == 1 {
		return keys
	}
	keys = append(keys, strings.Join(parts, "."))
	for i := 1; i < len(parts)-1; i++ {
		keys = append(keys, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return keys
}

func overlayFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	fs.Visit(func(f *pflag.Flag) {
		key, listed := keys[f.Name]
		if !listed {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		if key != "" {
			v.Set(key, f.Value.String())
		}
	})
}
