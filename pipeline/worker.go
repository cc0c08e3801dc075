package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/workqueue"
)

type run[I, P any] struct {
	inputs   []I
	produce  ProduceFunc[I, P]
	consume  ConsumeFunc[P]
	queue    *workqueue.Queue[P]
	counters *Counters
	obs      observers
	log      *logger.Logger
}

// produceLoop claims input indexes from cursor until none are left. It
// returns a non-nil error only when ctx is canceled.
func (r *run[I, P]) produceLoop(ctx context.Context, worker int, cursor *atomic.Int64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		index := int(cursor.Add(1) - 1)
		if index >= len(r.inputs) {
			return nil
		}
		r.counters.attempted.Add(1)

		payload, err := r.safeProduce(ctx, index)
		if err != nil {
			r.counters.drop(index)
			r.log.Error("produce failed", itemFields(worker, index, err))
			r.obs.ProduceFailed(index, err)
			continue
		}

		var units int64
		if m, ok := any(payload).(Measurer); ok {
			units = m.Units()
			r.counters.units.Add(units)
		}
		// Count and notify before pushing so neither a snapshot nor an
		// observer sees an item consumed before it was produced.
		r.counters.produced.Add(1)
		r.obs.Produced(index, units)
		r.queue.Push(workqueue.Item[P]{Index: index, Payload: payload})
		r.log.Debug("produced", logger.Fields(logger.FieldWorker, worker, logger.FieldIndex, index))
	}
}

// consumeLoop pops items until the queue is drained. It returns a non-nil
// error only when ctx is canceled.
func (r *run[I, P]) consumeLoop(ctx context.Context, worker int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, err := r.queue.Pop(ctx)
		if stderrors.Is(err, workqueue.ErrDrained) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := r.safeConsume(ctx, item); err != nil {
			r.counters.fail(item.Index)
			r.log.Error("consume failed", itemFields(worker, item.Index, err))
			r.obs.ConsumeFailed(item.Index, err)
			continue
		}
		r.counters.created.Add(1)
		r.log.Debug("consumed", logger.Fields(logger.FieldWorker, worker, logger.FieldIndex, item.Index))
		r.obs.Consumed(item.Index)
	}
}

func (r *run[I, P]) safeProduce(ctx context.Context, index int) (payload P, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Internal(fmt.Errorf("produce panicked: %v", rec))
		}
	}()
	return r.produce(ctx, index, r.inputs[index])
}

func (r *run[I, P]) safeConsume(ctx context.Context, item workqueue.Item[P]) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Internal(fmt.Errorf("consume panicked: %v", rec))
		}
	}()
	return r.consume(ctx, item)
}

func itemFields(worker, index int, err error) map[string]interface{} {
	fields := logger.Fields(logger.FieldWorker, worker, logger.FieldIndex, index, logger.FieldError, err.Error())
	if code := errors.CodeOf(err); code != "" {
		fields[logger.FieldCode] = string(code)
	}
	return fields
}
