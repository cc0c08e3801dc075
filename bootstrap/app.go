package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/previewkit/component"
	"github.com/kbukum/previewkit/config"
	"github.com/kbukum/previewkit/logger"
)

// Config is what App needs from an application config. Embedding
// config.ServiceConfig provides GetServiceConfig.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

// Configurer wires objects that need started components.
type Configurer[C Config] func(ctx context.Context, app *App[C]) error

// App drives one finite task: start components, configure, run, stop.
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*collector.Config]) error {
//	    c, err = collector.New(a.Cfg, fetcher, store)
//	    return err
//	})
//	err = app.RunTask(ctx, func(ctx context.Context) error { ... })
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	set        settings
	configures []Configurer[C]
	hooks      map[stage][]Hook
	// ownsLogger is set when NewApp built the logger and must close it.
	ownsLogger bool
}

// NewApp defaults and validates cfg, then builds the logger from its
// logging section unless WithLogger supplies one.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	a := &App[C]{
		Name:    base.Name,
		Version: base.Version,
		Cfg:     cfg,
		Summary: NewSummary(base.Name, base.Version),
		set:     newSettings(opts),
	}
	a.Logger = a.set.log
	if a.Logger == nil {
		l, err := logger.New(&base.Logging, base.Name)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		logger.SetGlobalLogger(l)
		a.Logger = l
		a.ownsLogger = true
	}
	logger.RegisterComponents(a.Logger, a.set.pinned...)
	a.Components = component.NewRegistry(a.Logger.WithComponent("registry"))
	return a, nil
}

func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure adds a callback that runs once components are started and
// before the task.
func (a *App[C]) OnConfigure(fn Configurer[C]) {
	a.configures = append(a.configures, fn)
}

// ReadyCheck fails when any component reports other than healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	results := a.Components.HealthAll(ctx)
	if component.Overall(results) == component.StatusHealthy {
		return nil
	}
	var bad []string
	for _, h := range results {
		if h.Status == component.StatusHealthy {
			continue
		}
		s := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			s += "(" + h.Message + ")"
		}
		bad = append(bad, s)
	}
	return fmt.Errorf("unhealthy components: %s", strings.Join(bad, ", "))
}

// startup brings the app to the point where the task may run. Whatever
// was started is stopped again when a step fails.
func (a *App[C]) startup(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("starting application", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := a.runStage(ctx, stageStart); err != nil {
		return a.abort(err)
	}
	for _, fn := range a.configures {
		if err := fn(ctx, a); err != nil {
			return a.abort(fmt.Errorf("configuration failed: %w", err))
		}
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := a.runStage(ctx, stageReady); err != nil {
		return a.abort(err)
	}

	a.Summary.SetStartupDuration(time.Since(began))
	if a.set.summary != nil {
		a.Summary.Render(a.set.summary, a.Components)
	}
	return nil
}

func (a *App[C]) abort(err error) error {
	if stopErr := a.stop(); stopErr != nil {
		a.Logger.Error("shutdown after failed startup", logger.Fields(logger.FieldError, stopErr.Error()))
	}
	return err
}
