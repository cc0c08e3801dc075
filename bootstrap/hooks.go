package bootstrap

import (
	"context"
	"fmt"
)

// Hook runs at a fixed point of the lifecycle. Hooks of one stage run in
// registration order and the first error ends the stage.
type Hook func(ctx context.Context) error

type stage string

const (
	stageStart stage = "start"
	stageReady stage = "ready"
	stageStop  stage = "stop"
)

// OnStart hooks run once every component is up, before the OnConfigure
// callbacks.
func (a *App[C]) OnStart(hooks ...Hook) { a.addHooks(stageStart, hooks) }

// OnReady hooks run after the ready check, right before the task.
func (a *App[C]) OnReady(hooks ...Hook) { a.addHooks(stageReady, hooks) }

// OnStop hooks run before components are stopped. They also run when
// startup fails half way.
func (a *App[C]) OnStop(hooks ...Hook) { a.addHooks(stageStop, hooks) }

func (a *App[C]) addHooks(s stage, hooks []Hook) {
	if a.hooks == nil {
		a.hooks = make(map[stage][]Hook)
	}
	a.hooks[s] = append(a.hooks[s], hooks...)
}

func (a *App[C]) runStage(ctx context.Context, s stage) error {
	for i, h := range a.hooks[s] {
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s hook #%d: %w", s, i+1, err)
		}
	}
	return nil
}
