package component

import "context"

// HealthStatus is the coarse state reported by a component probe.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's probe result as served on /health.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Healthy returns a healthy result for name.
func Healthy(name string) Health {
	return Health{Name: name, Status: StatusHealthy}
}

// Degraded returns a degraded result for name with a reason.
func Degraded(name, message string) Health {
	return Health{Name: name, Status: StatusDegraded, Message: message}
}

// Unhealthy returns an unhealthy result for name with a reason.
func Unhealthy(name, message string) Health {
	return Health{Name: name, Status: StatusUnhealthy, Message: message}
}

// Overall folds probe results into one status. Unhealthy wins over
// degraded and degraded over healthy; no results is healthy.
func Overall(results []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range results {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Component is a piece of infrastructure the collector depends on: the
// output storage, the download client, telemetry, the status server.
// A Registry starts them in order before any worker runs.
type Component interface {
	Name() string
	// Start must fail when the component cannot serve, so a run aborts
	// before downloading anything.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is the startup summary line of a component.
type Description struct {
	// Name defaults to the component's Name() when empty.
	Name    string `json:"name"`
	Type    string `json:"type"`
	Details string `json:"details,omitempty"`
}

// Describable components contribute a line to the startup summary.
type Describable interface {
	Describe() Description
}
