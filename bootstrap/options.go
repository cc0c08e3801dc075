package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/previewkit/logger"
)

// DefaultGracefulTimeout bounds how long stopping the components may take.
const DefaultGracefulTimeout = 15 * time.Second

// Option customizes NewApp. Options do not depend on the config type.
type Option func(*settings)

type settings struct {
	log             *logger.Logger
	gracefulTimeout time.Duration
	summary         io.Writer
	pinned          []string
}

func newSettings(opts []Option) settings {
	s := settings{gracefulTimeout: DefaultGracefulTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger NewApp would build from config.Logging.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithGracefulTimeout overrides DefaultGracefulTimeout.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) { s.gracefulTimeout = d }
}

// WithSummary renders the startup summary to w once every component is up.
func WithSummary(w io.Writer) Option {
	return func(s *settings) { s.summary = w }
}

// WithComponentLoggers registers a child of the application logger under
// each name, so that packages calling logger.Get(name) log through the
// configured outputs.
func WithComponentLoggers(names ...string) Option {
	return func(s *settings) { s.pinned = append(s.pinned, names...) }
}
