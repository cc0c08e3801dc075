package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/validation"
	"github.com/kbukum/previewkit/workqueue"
)

// ProduceFunc turns the input at index into a payload. A non-nil error drops
// the index.
type ProduceFunc[I, P any] func(ctx context.Context, index int, input I) (P, error)

// ConsumeFunc handles one produced item. A non-nil error is counted against
// the item; the worker moves on to the next one.
type ConsumeFunc[P any] func(ctx context.Context, item workqueue.Item[P]) error

// Run processes inputs with cfg.Producers producers and cfg.Consumers
// consumers and returns the final report.
//
// Invalid pool sizes or missing functions fail with SETUP_FAILED before any
// worker starts. If ctx is canceled the workers stop at their next loop
// iteration; Run then returns the partial report together with a CANCELED
// error.
func Run[I, P any](
	ctx context.Context,
	inputs []I,
	cfg Config,
	produce ProduceFunc[I, P],
	consume ConsumeFunc[P],
	opts ...Option,
) (*Report, error) {
	if err := checkSetup(cfg, produce != nil, consume != nil); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("pipeline")
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if o.counters == nil {
		o.counters = &Counters{}
	}
	o.counters.inputs.Store(int64(len(inputs)))

	r := &run[I, P]{
		inputs:   inputs,
		produce:  produce,
		consume:  consume,
		queue:    workqueue.New[P](),
		counters: o.counters,
		obs:      o.observers,
		log:      o.log.WithFields(logger.Fields(logger.FieldRunID, o.runID)),
	}

	start := time.Now()
	r.obs.Started(o.runID, len(inputs))
	r.log.Info("run started", logger.Fields(
		"inputs", len(inputs), "producers", cfg.Producers, "consumers", cfg.Consumers))

	var consumers errgroup.Group
	for w := 0; w < cfg.Consumers; w++ {
		consumers.Go(func() error { return r.consumeLoop(ctx, w) })
	}

	var (
		producers errgroup.Group
		cursor    atomic.Int64
	)
	for w := 0; w < cfg.Producers; w++ {
		r.queue.RegisterProducer()
		producers.Go(func() error {
			defer r.queue.ProducerDone()
			return r.produceLoop(ctx, w, &cursor)
		})
	}

	perr := producers.Wait()
	if err := r.queue.SignalCompletion(); err != nil {
		// Every producer has returned, so a rejected signal means the
		// queue protocol itself is broken.
		panic(err)
	}
	cerr := consumers.Wait()

	canceled := perr != nil || cerr != nil
	report := newReport(o.runID, r.counters, time.Since(start), canceled)
	r.obs.Finished(report)

	fields := logger.Fields(
		"attempted", report.Attempted,
		"produced", report.Produced,
		"created", report.Created,
		"errors", report.Errors,
		logger.FieldDuration, report.ElapsedMillis(),
	)
	if err := report.Check(); err != nil {
		r.log.WithError(err).Error("run finished with inconsistent counters", fields)
		return report, err
	}
	if canceled {
		cause := perr
		if cause == nil {
			cause = cerr
		}
		r.log.Warn("run canceled", logger.MergeWithError(fields, cause))
		return report, errors.Canceled(cause)
	}
	r.log.Info("run finished", fields)
	return report, nil
}

func checkSetup(cfg Config, hasProduce, hasConsume bool) error {
	if err := validation.Validate(cfg); err != nil {
		return errors.SetupFailed("pool sizes", err)
	}
	if !hasProduce {
		return errors.SetupFailed("produce function is nil", nil)
	}
	if !hasConsume {
		return errors.SetupFailed("consume function is nil", nil)
	}
	return nil
}
