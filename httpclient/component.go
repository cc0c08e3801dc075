package httpclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/previewkit/component"
)

// Component wraps a Client with lifecycle management.
type Component struct {
	client *Client
	config Config
	opts   []Option
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new HTTP client component.
// The client is created in Start().
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	return "http-client"
}

// Start builds the client.
func (c *Component) Start(_ context.Context) error {
	client, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// Stop closes idle connections.
func (c *Component) Stop(_ context.Context) error {
	if c.client != nil {
		c.client.CloseIdleConnections()
	}
	return nil
}

// Health reports degraded while any host circuit is open.
func (c *Component) Health(_ context.Context) component.Health {
	if c.client == nil {
		return component.Unhealthy(c.Name(), "not started")
	}
	if open := c.client.OpenCircuits(); len(open) > 0 {
		return component.Degraded(c.Name(), "circuit open: "+strings.Join(open, ", "))
	}
	return component.Healthy(c.Name())
}

// Describe returns component description for the startup summary.
func (c *Component) Describe() component.Description {
	cfg := c.config
	cfg.ApplyDefaults()
	return component.Description{
		Name:    c.Name(),
		Type:    "http-client",
		Details: fmt.Sprintf("timeout=%s http2=%t max_per_host=%d", cfg.Timeout, !cfg.DisableHTTP2, cfg.Resilience.MaxPerHost),
	}
}

// Client returns the underlying client. Must be called after Start().
func (c *Component) Client() *Client {
	return c.client
}
