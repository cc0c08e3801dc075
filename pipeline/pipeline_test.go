package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/workqueue"
)

type sized int64

func (s sized) Units() int64 { return int64(s) }

// collector records consumed indexes so tests can check the index set.
type collector struct {
	mu      sync.Mutex
	indexes []int
}

func (c *collector) add(i int) {
	c.mu.Lock()
	c.indexes = append(c.indexes, i)
	c.mu.Unlock()
}

func (c *collector) sorted() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := slices.Clone(c.indexes)
	slices.Sort(out)
	return out
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func runWithin(t *testing.T, d time.Duration, fn func() (*Report, error)) (*Report, error) {
	t.Helper()
	type result struct {
		report *Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		r, err := fn()
		done <- result{r, err}
	}()
	select {
	case res := <-done:
		return res.report, res.err
	case <-time.After(d):
		t.Fatalf("run did not finish within %s", d)
		return nil, nil
	}
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		inputs    int
		producers int
		consumers int
		failFetch map[int]bool
		want      Report
	}{
		{
			name: "A all succeed", inputs: 30, producers: 8, consumers: 8,
			want: Report{Inputs: 30, Attempted: 30, Produced: 30, Created: 30},
		},
		{
			name: "B one fetch fails", inputs: 30, producers: 8, consumers: 8,
			failFetch: map[int]bool{5: true},
			want:      Report{Inputs: 30, Attempted: 30, Produced: 29, ProducerErrors: 1, Created: 29, Errors: 1, Dropped: []int{5}},
		},
		{
			name: "C no inputs", inputs: 0, producers: 8, consumers: 8,
			want: Report{},
		},
		{
			name: "D single workers", inputs: 30, producers: 1, consumers: 1,
			failFetch: map[int]bool{0: true, 29: true},
			want:      Report{Inputs: 30, Attempted: 30, Produced: 28, ProducerErrors: 2, Created: 28, Errors: 2, Dropped: []int{0, 29}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got collector
			report, err := runWithin(t, 5*time.Second, func() (*Report, error) {
				return Run(context.Background(), seq(tc.inputs), Config{Producers: tc.producers, Consumers: tc.consumers},
					func(_ context.Context, index int, in int) (int, error) {
						if tc.failFetch[index] {
							return 0, errors.FetchFailed(index, fmt.Sprint(in), stderrors.New("unreachable"))
						}
						return in * 10, nil
					},
					func(_ context.Context, item workqueue.Item[int]) error {
						if item.Payload != item.Index*10 {
							return fmt.Errorf("payload %d does not belong to index %d", item.Payload, item.Index)
						}
						got.add(item.Index)
						return nil
					},
					WithLogger(logger.Nop()),
				)
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if report.Inputs != tc.want.Inputs || report.Attempted != tc.want.Attempted ||
				report.Produced != tc.want.Produced || report.ProducerErrors != tc.want.ProducerErrors ||
				report.Created != tc.want.Created || report.Errors != tc.want.Errors {
				t.Errorf("expected %+v, got %+v", tc.want, *report)
			}
			if !slices.Equal(report.Dropped, tc.want.Dropped) {
				t.Errorf("expected dropped %v, got %v", tc.want.Dropped, report.Dropped)
			}

			var wantIdx []int
			for i := 0; i < tc.inputs; i++ {
				if !tc.failFetch[i] {
					wantIdx = append(wantIdx, i)
				}
			}
			if !slices.Equal(got.sorted(), wantIdx) {
				t.Errorf("expected consumed indexes %v, got %v", wantIdx, got.sorted())
			}
			if report.RunID == "" {
				t.Error("expected a generated run id")
			}
		})
	}
}

func TestRun_SingleWorkersMatchSequentialLoop(t *testing.T) {
	inputs := seq(50)
	fetch := func(i int) (int, error) {
		if i%9 == 4 {
			return 0, stderrors.New("fetch")
		}
		return i + 1, nil
	}
	transform := func(p int) error {
		if p%5 == 0 {
			return stderrors.New("transform")
		}
		return nil
	}

	var want Report
	var wantOrder []int
	for i, in := range inputs {
		want.Attempted++
		p, err := fetch(in)
		if err != nil {
			want.ProducerErrors++
			continue
		}
		want.Produced++
		if err := transform(p); err != nil {
			want.ConsumerErrors++
			continue
		}
		want.Created++
		wantOrder = append(wantOrder, i)
	}

	var order []int
	report, err := Run(context.Background(), inputs, Config{Producers: 1, Consumers: 1},
		func(_ context.Context, _ int, in int) (int, error) { return fetch(in) },
		func(_ context.Context, item workqueue.Item[int]) error {
			if err := transform(item.Payload); err != nil {
				return err
			}
			order = append(order, item.Index)
			return nil
		},
		WithLogger(logger.Nop()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Attempted != want.Attempted || report.Produced != want.Produced ||
		report.ProducerErrors != want.ProducerErrors || report.Created != want.Created ||
		report.ConsumerErrors != want.ConsumerErrors {
		t.Errorf("expected %+v, got %+v", want, *report)
	}
	// One producer feeding one consumer through a FIFO keeps input order.
	if !slices.Equal(order, wantOrder) {
		t.Errorf("expected order %v, got %v", wantOrder, order)
	}
}

func TestRun_Liveness(t *testing.T) {
	for _, p := range []int{1, 2, 8} {
		for _, c := range []int{1, 3, 16} {
			for _, n := range []int{0, 1, 7, 100} {
				t.Run(fmt.Sprintf("p%d_c%d_n%d", p, c, n), func(t *testing.T) {
					report, err := runWithin(t, 5*time.Second, func() (*Report, error) {
						return Run(context.Background(), seq(n), Config{Producers: p, Consumers: c},
							func(_ context.Context, i int, _ int) (int, error) { return i, nil },
							func(context.Context, workqueue.Item[int]) error { return nil },
							WithLogger(logger.Nop()),
						)
					})
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					if report.Created != int64(n) {
						t.Errorf("expected %d created, got %d", n, report.Created)
					}
				})
			}
		}
	}
}

func TestRun_NoLostUpdatesUnderJitter(t *testing.T) {
	const n = 1000
	inputs := seq(n)
	fetchFails := func(i int) bool { return i%7 == 0 }
	transformFails := func(i int) bool { return i%11 == 0 }

	// Sequential reference.
	var want Report
	for _, i := range inputs {
		want.Attempted++
		if fetchFails(i) {
			want.ProducerErrors++
			continue
		}
		want.Produced++
		want.Units += int64(i)
		if transformFails(i) {
			want.ConsumerErrors++
			continue
		}
		want.Created++
	}

	jitter := func(seed int) {
		r := rand.New(rand.NewSource(int64(seed)))
		if r.Intn(4) == 0 {
			time.Sleep(time.Duration(r.Intn(200)) * time.Microsecond)
		}
	}

	var got collector
	report, err := runWithin(t, 30*time.Second, func() (*Report, error) {
		return Run(context.Background(), inputs, Config{Producers: 8, Consumers: 8},
			func(_ context.Context, index int, in int) (sized, error) {
				jitter(index)
				if fetchFails(in) {
					return 0, stderrors.New("fetch")
				}
				return sized(in), nil
			},
			func(_ context.Context, item workqueue.Item[sized]) error {
				jitter(item.Index + n)
				if transformFails(item.Index) {
					return stderrors.New("transform")
				}
				got.add(item.Index)
				return nil
			},
			WithLogger(logger.Nop()),
		)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Attempted != want.Attempted || report.Produced != want.Produced ||
		report.ProducerErrors != want.ProducerErrors || report.Created != want.Created ||
		report.ConsumerErrors != want.ConsumerErrors || report.Units != want.Units {
		t.Errorf("expected %+v, got %+v", want, *report)
	}
	if report.Errors != want.ProducerErrors+want.ConsumerErrors {
		t.Errorf("expected %d errors, got %d", want.ProducerErrors+want.ConsumerErrors, report.Errors)
	}

	consumed := got.sorted()
	if int64(len(consumed)) != want.Created {
		t.Fatalf("expected %d consumed, got %d", want.Created, len(consumed))
	}
	for i := 1; i < len(consumed); i++ {
		if consumed[i] == consumed[i-1] {
			t.Fatalf("index %d consumed twice", consumed[i])
		}
	}

	// consumed ∪ dropped ∪ failed must be exactly {0..n-1}.
	all := append(append(slices.Clone(consumed), report.Dropped...), report.Failed...)
	slices.Sort(all)
	if !slices.Equal(all, inputs) {
		t.Error("consumed, dropped and failed indexes do not partition the inputs")
	}
}

func TestRun_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	report, err := runWithin(t, 5*time.Second, func() (*Report, error) {
		return Run(ctx, seq(1000), Config{Producers: 2, Consumers: 4},
			func(_ context.Context, i int, _ int) (int, error) {
				if i == 10 {
					cancel()
				}
				return i, nil
			},
			func(ctx context.Context, _ workqueue.Item[int]) error {
				<-ctx.Done()
				return ctx.Err()
			},
			WithLogger(logger.Nop()),
		)
	})

	if !errors.IsCode(err, errors.ErrCodeCanceled) {
		t.Fatalf("expected CANCELED, got %v", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
	if report == nil || !report.Canceled {
		t.Fatalf("expected a canceled report, got %+v", report)
	}
	if report.Attempted >= 1000 {
		t.Errorf("expected producers to stop early, attempted %d", report.Attempted)
	}
	if report.Produced+report.ProducerErrors != report.Attempted {
		t.Errorf("producer identity broken: %+v", *report)
	}
}

func TestRun_CancelWhileConsumersIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
		close(release)
	}()

	_, err := runWithin(t, 5*time.Second, func() (*Report, error) {
		return Run(ctx, seq(1), Config{Producers: 1, Consumers: 8},
			func(ctx context.Context, _ int, _ int) (int, error) {
				<-release
				return 0, ctx.Err()
			},
			func(context.Context, workqueue.Item[int]) error { return nil },
			WithLogger(logger.Nop()),
		)
	})
	if !errors.IsCode(err, errors.ErrCodeCanceled) {
		t.Errorf("expected CANCELED, got %v", err)
	}
}

func TestRun_SetupErrors(t *testing.T) {
	produce := func(context.Context, int, int) (int, error) {
		t.Error("produce must not run")
		return 0, nil
	}
	consume := func(context.Context, workqueue.Item[int]) error {
		t.Error("consume must not run")
		return nil
	}

	tests := []struct {
		name    string
		cfg     Config
		produce ProduceFunc[int, int]
		consume ConsumeFunc[int]
	}{
		{"zero producers", Config{Producers: 0, Consumers: 1}, produce, consume},
		{"zero consumers", Config{Producers: 1, Consumers: 0}, produce, consume},
		{"nil produce", Config{Producers: 1, Consumers: 1}, nil, consume},
		{"nil consume", Config{Producers: 1, Consumers: 1}, produce, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			report, err := Run(context.Background(), seq(3), tc.cfg, tc.produce, tc.consume, WithLogger(logger.Nop()))
			if !errors.IsCode(err, errors.ErrCodeSetupFailed) {
				t.Errorf("expected SETUP_FAILED, got %v", err)
			}
			if report != nil {
				t.Errorf("expected no report, got %+v", report)
			}
		})
	}
}

func TestRun_PanicsAreItemFailures(t *testing.T) {
	report, err := Run(context.Background(), seq(10), Config{Producers: 3, Consumers: 3},
		func(_ context.Context, i int, _ int) (int, error) {
			if i == 2 {
				panic("bad input")
			}
			return i, nil
		},
		func(_ context.Context, item workqueue.Item[int]) error {
			if item.Index == 7 {
				panic("bad payload")
			}
			return nil
		},
		WithLogger(logger.Nop()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(report.Dropped, []int{2}) || !slices.Equal(report.Failed, []int{7}) {
		t.Errorf("expected dropped [2] failed [7], got %v %v", report.Dropped, report.Failed)
	}
	if report.Created != 8 {
		t.Errorf("expected 8 created, got %d", report.Created)
	}
}

type countingObserver struct {
	NopObserver
	started, produced, produceFailed, consumed, consumeFailed, finished atomic.Int64
	units                                                               atomic.Int64
}

func (o *countingObserver) Started(string, int)      { o.started.Add(1) }
func (o *countingObserver) Produced(_ int, u int64)  { o.produced.Add(1); o.units.Add(u) }
func (o *countingObserver) ProduceFailed(int, error) { o.produceFailed.Add(1) }
func (o *countingObserver) Consumed(int)             { o.consumed.Add(1) }
func (o *countingObserver) ConsumeFailed(int, error) { o.consumeFailed.Add(1) }
func (o *countingObserver) Finished(*Report)         { o.finished.Add(1) }

func TestRun_ObserverAndCounters(t *testing.T) {
	obs := &countingObserver{}
	counters := &Counters{}

	report, err := Run(context.Background(), seq(20), Config{Producers: 4, Consumers: 2},
		func(_ context.Context, i int, _ int) (sized, error) {
			if i%4 == 0 {
				return 0, stderrors.New("nope")
			}
			return sized(100), nil
		},
		func(_ context.Context, item workqueue.Item[sized]) error {
			if item.Index == 3 {
				return stderrors.New("broken")
			}
			return nil
		},
		WithLogger(logger.Nop()),
		WithObserver(obs),
		WithCounters(counters),
		WithRunID("run-1"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.RunID != "run-1" {
		t.Errorf("expected run-1, got %q", report.RunID)
	}
	if obs.started.Load() != 1 || obs.finished.Load() != 1 {
		t.Errorf("expected one start and one finish, got %d/%d", obs.started.Load(), obs.finished.Load())
	}
	if obs.produced.Load() != 15 || obs.produceFailed.Load() != 5 {
		t.Errorf("expected 15 produced / 5 failed, got %d/%d", obs.produced.Load(), obs.produceFailed.Load())
	}
	if obs.consumed.Load() != 14 || obs.consumeFailed.Load() != 1 {
		t.Errorf("expected 14 consumed / 1 failed, got %d/%d", obs.consumed.Load(), obs.consumeFailed.Load())
	}
	if obs.units.Load() != 1500 || report.Units != 1500 {
		t.Errorf("expected 1500 units, got observer=%d report=%d", obs.units.Load(), report.Units)
	}

	snap := counters.Snapshot()
	if snap.Created != report.Created || snap.Units != report.Units || snap.InFlight() != 0 {
		t.Errorf("live counters disagree with report: %+v vs %+v", snap, *report)
	}
}

// orderObserver records which indexes were reported produced and flags any
// index reported consumed before that. Produced is slowed down so a consumer
// popping the item early would be caught.
type orderObserver struct {
	NopObserver
	mu       sync.Mutex
	produced map[int]bool
	early    []int
	inFlight int
	minSeen  int
}

func (o *orderObserver) Produced(index int, _ int64) {
	time.Sleep(200 * time.Microsecond)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.produced[index] = true
	o.inFlight++
}

func (o *orderObserver) Consumed(index int)               { o.settle(index) }
func (o *orderObserver) ConsumeFailed(index int, _ error) { o.settle(index) }

func (o *orderObserver) settle(index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.produced[index] {
		o.early = append(o.early, index)
	}
	o.inFlight--
	o.minSeen = min(o.minSeen, o.inFlight)
}

func TestRun_ObserverSeesProducedBeforeConsumed(t *testing.T) {
	obs := &orderObserver{produced: map[int]bool{}}

	report, err := Run(context.Background(), seq(200), Config{Producers: 8, Consumers: 8},
		func(_ context.Context, i int, _ int) (int, error) { return i, nil },
		func(_ context.Context, item workqueue.Item[int]) error {
			if item.Index%10 == 0 {
				return stderrors.New("broken")
			}
			return nil
		},
		WithLogger(logger.Nop()),
		WithObserver(obs),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Created+report.ConsumerErrors != 200 {
		t.Fatalf("expected 200 consumed items, got %+v", *report)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.early) != 0 {
		t.Errorf("expected no item consumed before it was produced, got %v", obs.early)
	}
	if obs.minSeen < 0 || obs.inFlight != 0 {
		t.Errorf("expected in-flight to stay >= 0 and end at 0, got min=%d end=%d", obs.minSeen, obs.inFlight)
	}
}

func TestReport_Check(t *testing.T) {
	tests := []struct {
		name    string
		report  Report
		wantErr bool
	}{
		{"consistent", Report{Inputs: 3, Attempted: 3, Produced: 2, ProducerErrors: 1, Created: 1, ConsumerErrors: 1, Dropped: []int{0}, Failed: []int{2}}, false},
		{"producer identity", Report{Inputs: 3, Attempted: 3, Produced: 1}, true},
		{"consumer identity", Report{Inputs: 2, Attempted: 2, Produced: 2, Created: 1}, true},
		{"missing attempts", Report{Inputs: 5, Attempted: 2, Produced: 2, Created: 2}, true},
		{"canceled partial", Report{Inputs: 5, Attempted: 2, Produced: 2, Created: 1, Canceled: true}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.report.Check()
			if (err != nil) != tc.wantErr {
				t.Errorf("expected error=%v, got %v", tc.wantErr, err)
			}
			if err != nil && !errors.IsCode(err, errors.ErrCodeCoordination) {
				t.Errorf("expected COORDINATION, got %v", err)
			}
		})
	}
}

func TestReport_ElapsedMillis(t *testing.T) {
	r := Report{Elapsed: 1234 * time.Millisecond}
	if r.ElapsedMillis() != 1234 {
		t.Errorf("expected 1234, got %d", r.ElapsedMillis())
	}
}
