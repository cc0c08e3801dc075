package storage

import (
	"context"

	"github.com/kbukum/previewkit/component"
	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
)

// probeKey is looked up by Health. It never has to exist; the lookup only
// proves the backend answers.
const probeKey = ".previewkit-probe"

// Component opens the configured backend when the application starts.
type Component struct {
	cfg     Config
	log     *logger.Logger
	storage Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent returns a component for cfg. Defaults are applied here.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage returns the open backend. It is nil until Start succeeds.
func (c *Component) Storage() Storage {
	return c.storage
}

func (c *Component) Name() string { return "storage" }

// Start opens the backend. Failing to open the output location is a setup
// failure of the whole run.
func (c *Component) Start(ctx context.Context) error {
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return errors.SetupFailed("open storage "+c.cfg.Location(), err)
	}
	c.storage = s
	c.log.Debug("storage opened", logger.Fields("location", c.cfg.Location()))
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	return nil
}

// Health probes the backend with an existence check.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.storage == nil {
		return component.Unhealthy(c.Name(), "not started")
	}
	if _, err := c.storage.Exists(ctx, probeKey); err != nil {
		return component.Unhealthy(c.Name(), "probe failed: "+err.Error())
	}
	return component.Healthy(c.Name())
}

func (c *Component) Describe() component.Description {
	return component.Description{Name: "Output", Type: "storage", Details: c.cfg.Location()}
}
