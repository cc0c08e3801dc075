package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/previewkit/logger"
)

// RunTask starts the app, runs task and stops the app. SIGINT and SIGTERM
// cancel the task context; task must return soon after. A task error takes
// precedence over a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		a.closeLogger()
		return err
	}

	taskCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	taskErr := task(taskCtx)
	if taskCtx.Err() != nil && ctx.Err() == nil {
		a.Logger.Warn("task interrupted by signal")
	}
	stopSignals()

	if err := a.stop(); err != nil && taskErr == nil {
		return err
	}
	return taskErr
}

// Shutdown stops all components. Use it when driving the lifecycle by hand.
func (a *App[C]) Shutdown() error {
	return a.stop()
}

// stop runs the stop hooks, then stops components in reverse order, all
// within the graceful timeout. The first failure is returned.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.set.gracefulTimeout)
	defer cancel()

	var first error
	if err := a.runStage(ctx, stageStop); err != nil {
		a.Logger.Error("stop hook failed", logger.Fields(logger.FieldError, err.Error()))
		first = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("components stopped with errors", logger.Fields(logger.FieldError, err.Error()))
		if first == nil {
			first = err
		}
	}
	a.Logger.Debug("application stopped")
	a.closeLogger()
	return first
}

// closeLogger releases the log files of a logger built by NewApp. A logger
// passed in with WithLogger belongs to the caller.
func (a *App[C]) closeLogger() {
	if !a.ownsLogger {
		return
	}
	if err := a.Logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close logger: %v\n", err)
	}
}
