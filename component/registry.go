package component

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/previewkit/logger"
)

const stopTimeout = 10 * time.Second

// Registry owns the components of an app. They start in registration
// order and stop in reverse, so dependencies are registered first.
type Registry struct {
	mu         sync.RWMutex
	components []Component
	byName     map[string]int
	// started counts the prefix of components that are running.
	started int
	log     *logger.Logger
}

// NewRegistry returns an empty registry. A nil log uses the global logger.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.WithComponent("registry")
	}
	return &Registry{byName: make(map[string]int), log: log}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.byName[name] = len(r.components)
	r.components = append(r.components, c)
	return nil
}

// StartAll starts every component not yet running. When one fails, the
// ones started before it are stopped again and the start error returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	var startErr error
	for ; r.started < len(r.components); r.started++ {
		c := r.components[r.started]
		if err := c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			startErr = fmt.Errorf("failed to start %s: %w", c.Name(), err)
			break
		}
		r.log.Debug("component started", describe(c))
	}
	r.mu.Unlock()

	if startErr == nil {
		return nil
	}
	return stderrors.Join(startErr, r.StopAll(context.WithoutCancel(ctx)))
}

func describe(c Component) map[string]interface{} {
	fields := logger.Fields(logger.FieldComponent, c.Name())
	if d, ok := c.(Describable); ok {
		desc := d.Describe()
		fields["type"], fields["details"] = desc.Type, desc.Details
	}
	return fields
}

// StopAll stops running components in reverse order, each bounded by its
// own timeout. Every stop error is returned.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for ; r.started > 0; r.started-- {
		c := r.components[r.started-1]
		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			r.log.Error("component stop failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", c.Name(), err))
		}
	}
	return stderrors.Join(errs...)
}

// HealthAll probes every registered component, in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]Health, len(r.components))
	for i, c := range r.components {
		results[i] = c.Health(ctx)
	}
	return results
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.byName[name]; ok {
		return r.components[i]
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.components...)
}
