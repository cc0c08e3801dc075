package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/previewkit/component"
)

var healthIcons = map[component.HealthStatus]string{
	component.StatusHealthy:   "✅",
	component.StatusDegraded:  "⚠️",
	component.StatusUnhealthy: "❌",
}

// Summary is the startup banner printed with --debug.
type Summary struct {
	service string
	version string
	took    time.Duration
}

func NewSummary(service, version string) *Summary {
	return &Summary{service: service, version: version}
}

func (s *Summary) SetStartupDuration(d time.Duration) { s.took = d }

// Render writes the banner, one line per described component and one line
// per health result.
func (s *Summary) Render(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n", s.service, s.version, s.took.Seconds())
	if registry == nil {
		fmt.Fprintln(w)
		return
	}

	var infra []string
	for _, c := range registry.All() {
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name == "" {
				desc.Name = c.Name()
			}
			infra = append(infra, fmt.Sprintf("%s: %s [%s]", desc.Name, desc.Details, desc.Type))
		}
	}
	section(w, "📊 Infrastructure", infra)

	results := registry.HealthAll(context.Background())
	if len(results) == 0 {
		fmt.Fprint(w, "   └── No components registered\n\n")
		return
	}
	health := make([]string, len(results))
	for i, h := range results {
		icon, ok := healthIcons[h.Status]
		if !ok {
			icon = "❓"
		}
		health[i] = fmt.Sprintf("%s %s: %s", icon, h.Name, h.Status)
		if h.Message != "" {
			health[i] += " (" + h.Message + ")"
		}
	}
	section(w, "🏥 Health Check", health)
	fmt.Fprintln(w)
}

func section(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for i, line := range lines {
		branch := "├──"
		if i == len(lines)-1 {
			branch = "└──"
		}
		fmt.Fprintf(w, "   %s %s\n", branch, line)
	}
}
