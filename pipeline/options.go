package pipeline

import (
	"github.com/kbukum/previewkit/logger"
)

type options struct {
	log       *logger.Logger
	observers observers
	runID     string
	counters  *Counters
}

// Option configures a Run.
type Option func(*options)

// WithLogger sets the logger used for per-item diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithObserver adds an observer. Observers are notified in the order added.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// WithCounters makes the run update c, so that its progress can be read
// from another goroutine while the run is in flight. c must be fresh.
func WithCounters(c *Counters) Option {
	return func(o *options) { o.counters = c }
}
