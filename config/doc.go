// Package config loads application configuration with viper.
//
// Values are layered, lowest priority first: the YAML config file, a .env
// file, process environment variables, and finally command-line flags that
// were explicitly set. Application configs embed ServiceConfig and add their
// own sections.
//
// # Usage
//
//	var cfg collector.Config
//	err := config.LoadConfig("collectpreviews", &cfg,
//	    config.WithConfigFile(path),
//	    config.WithEnvPrefix("PREVIEWKIT"),
//	    config.WithFlags(flags, map[string]string{"threads": "producers"}),
//	)
package config
