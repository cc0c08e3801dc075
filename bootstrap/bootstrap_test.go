package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/previewkit/component"
	"github.com/kbukum/previewkit/config"
	"github.com/kbukum/previewkit/logger"
)

// testConfig is a minimal config that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

// mockComponent implements component.Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	log      *[]string

	mu      sync.Mutex
	started bool
	stopped bool
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	if m.log != nil {
		*m.log = append(*m.log, "start:"+m.name)
	}
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.log != nil {
		*m.log = append(*m.log, "stop:"+m.name)
	}
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) component.Health {
	if m.health.Name == "" {
		return component.Health{Name: m.name, Status: component.StatusHealthy}
	}
	return m.health
}

func (m *mockComponent) Describe() component.Description {
	return component.Description{Name: m.name, Type: "mock", Details: "in memory"}
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"), opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Components == nil {
		t.Error("expected non-nil components registry")
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	if app.Cfg.Logging.Level != "info" {
		t.Errorf("expected defaults applied, got level %q", app.Cfg.Logging.Level)
	}
}

func TestNewAppValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *testConfig
	}{
		{"missing name", &testConfig{}},
		{"bad environment", &testConfig{ServiceConfig: config.ServiceConfig{Name: "x", Environment: "qa"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewApp(tt.cfg, WithLogger(logger.Nop())); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewAppBuildsLoggerFromConfig(t *testing.T) {
	prev := logger.GetGlobalLogger()
	defer logger.SetGlobalLogger(prev)

	cfg := newTestConfig("from-config", "0.1.0")
	cfg.Logging.Output = "stderr"
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if logger.GetGlobalLogger() != app.Logger {
		t.Error("expected app logger to become the global logger")
	}
}

func TestWithComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewApp(newTestConfig("svc", "1"),
		WithLogger(logger.NewWriter(&buf, "info")),
		WithComponentLoggers("worker"),
	)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer logger.Unregister("worker")

	logger.Get("worker").Info("hello")
	if !strings.Contains(buf.String(), `"component":"worker"`) {
		t.Errorf("expected worker logger derived from app logger, got %q", buf.String())
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	var events []string
	app := newTestApp(t)
	for _, name := range []string{"a", "b"} {
		if err := app.RegisterComponent(&mockComponent{name: name, log: &events}); err != nil {
			t.Fatal(err)
		}
	}
	app.OnStart(func(context.Context) error { events = append(events, "onStart"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		events = append(events, "configure:"+a.Cfg.Name)
		return nil
	})
	app.OnReady(func(context.Context) error { events = append(events, "onReady"); return nil })
	app.OnStop(func(context.Context) error { events = append(events, "onStop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	expected := []string{
		"start:a", "start:b", "onStart", "configure:test-svc", "onReady",
		"task", "onStop", "stop:b", "stop:a",
	}
	if strings.Join(events, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, events)
	}
}

func TestRunTaskErrorPrecedence(t *testing.T) {
	taskErr := errors.New("task failed")
	stopErr := errors.New("stop failed")

	tests := []struct {
		name     string
		task     error
		stop     error
		expected error
	}{
		{"task error wins", taskErr, stopErr, taskErr},
		{"stop error surfaces", nil, stopErr, stopErr},
		{"clean", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			_ = app.RegisterComponent(&mockComponent{name: "c", stopErr: tt.stop})
			err := app.RunTask(context.Background(), func(context.Context) error { return tt.task })
			if tt.expected == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestRunTaskStartFailureSkipsTask(t *testing.T) {
	app := newTestApp(t)
	first := &mockComponent{name: "first"}
	_ = app.RegisterComponent(first)
	_ = app.RegisterComponent(&mockComponent{name: "broken", startErr: errors.New("boom")})

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil {
		t.Fatal("expected startup error")
	}
	if ran {
		t.Error("task must not run when startup fails")
	}
	if !first.stopped {
		t.Error("expected started component to be stopped")
	}
}

func TestRunTaskHookFailureStopsComponents(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "c"}
	_ = app.RegisterComponent(c)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("bad wiring") })

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "configuration failed") {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !c.stopped {
		t.Error("expected component to be stopped after failed configure")
	}
}

func TestRunTaskSignalCancelsTask(t *testing.T) {
	app := newTestApp(t)

	done := make(chan error, 1)
	go func() {
		done <- app.RunTask(context.Background(), func(ctx context.Context) error {
			if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return errors.New("task was not canceled")
			}
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("RunTask did not return")
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "ok"})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("expected ready, got %v", err)
	}

	_ = app.RegisterComponent(&mockComponent{
		name:   "slow",
		health: component.Health{Name: "slow", Status: component.StatusDegraded, Message: "circuit open"},
	})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "slow=degraded(circuit open)") {
		t.Errorf("expected degraded detail, got %v", err)
	}
}

func TestSummaryRender(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, WithSummary(&out))
	_ = app.RegisterComponent(&mockComponent{name: "store"})

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	for _, want := range []string{"test-svc 1.0.0", "store: in memory [mock]", "store: healthy"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in summary, got %q", want, out.String())
		}
	}
}

func TestSummaryWithoutComponents(t *testing.T) {
	var out bytes.Buffer
	NewSummary("svc", "1").Render(&out, component.NewRegistry(logger.Nop()))
	if !strings.Contains(out.String(), "No components registered") {
		t.Errorf("unexpected summary %q", out.String())
	}
}

func TestRunTaskClosesOwnedLogger(t *testing.T) {
	prev := logger.GetGlobalLogger()
	defer logger.SetGlobalLogger(prev)

	path := filepath.Join(t.TempDir(), "app.log")
	cfg := newTestConfig("file-logged", "1.0.0")
	cfg.Logging = logger.Config{Level: "info", Format: "json", Output: path}
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	err = app.RunTask(context.Background(), func(context.Context) error {
		app.Logger.Info("task ran")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	app.Logger.Info("after stop")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "task ran") {
		t.Errorf("expected task event in log file, got %q", data)
	}
	if strings.Contains(string(data), "after stop") {
		t.Error("expected log file to be closed once the app stopped")
	}
}

func TestRunTaskLeavesSuppliedLoggerOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := logger.New(&logger.Config{Level: "info", Format: "json", Output: path}, "svc")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	app := newTestApp(t, WithLogger(l))
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	l.Info("still open")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "still open") {
		t.Errorf("expected supplied logger to keep writing, got %q", data)
	}
}
