// Package endpoint holds the handlers of the status server.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/previewkit/component"
	"github.com/kbukum/previewkit/version"
)

// HealthChecker reports the health of the application components.
type HealthChecker func(ctx context.Context) []component.Health

// StatusFunc returns the live status document of the running task.
type StatusFunc func(ctx context.Context) (any, error)

// Probes serves /health, /ready, /alive and /info for one service.
type Probes struct {
	service string
	checker HealthChecker
	started time.Time
}

// NewProbes returns probes for service. A nil checker reports no
// components, which counts as healthy.
func NewProbes(service string, checker HealthChecker) *Probes {
	return &Probes{service: service, checker: checker, started: time.Now()}
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status     component.HealthStatus `json:"status"`
	Service    string                 `json:"service"`
	Timestamp  string                 `json:"timestamp"`
	Components []component.Health     `json:"components"`
}

// ProbeResponse is the body of /ready and /alive.
type ProbeResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
}

// InfoResponse is the body of /info.
type InfoResponse struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	BuildTime string `json:"build_time,omitempty"`
	IsRelease bool   `json:"is_release"`
	Uptime    string `json:"uptime"`
}

func (p *Probes) components(ctx context.Context) []component.Health {
	if p.checker == nil {
		return []component.Health{}
	}
	return p.checker(ctx)
}

func (p *Probes) uptime() string {
	return time.Since(p.started).Round(time.Second).String()
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Health lists every component. Only an unhealthy service answers 503; a
// degraded one, such as a client with an open circuit, still answers 200.
func (p *Probes) Health(c *gin.Context) {
	comps := p.components(c.Request.Context())
	resp := HealthResponse{
		Status:     component.Overall(comps),
		Service:    p.service,
		Timestamp:  now(),
		Components: comps,
	}
	code := http.StatusOK
	if resp.Status == component.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Ready answers 503 "not_ready" while any component is unhealthy.
func (p *Probes) Ready(c *gin.Context) {
	resp := ProbeResponse{Status: "ready", Service: p.service, Timestamp: now()}
	code := http.StatusOK
	if component.Overall(p.components(c.Request.Context())) == component.StatusUnhealthy {
		resp.Status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Alive only confirms the process serves HTTP.
func (p *Probes) Alive(c *gin.Context) {
	c.JSON(http.StatusOK, ProbeResponse{Status: "alive", Service: p.service, Uptime: p.uptime()})
}

// Info reports build information.
func (p *Probes) Info(c *gin.Context) {
	v := version.Get()
	c.JSON(http.StatusOK, InfoResponse{
		Service:   p.service,
		Version:   v.Short(),
		GoVersion: v.GoVersion,
		BuildTime: v.BuildTime,
		IsRelease: v.IsRelease,
		Uptime:    p.uptime(),
	})
}
