// Package version reports the build information of the running binary.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/previewkit/version.Version=1.0.0"
package version
