package workqueue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[string]()
	q.Push(Item[string]{Index: 0, Payload: "zero"})
	q.Push(Item[string]{Index: 1, Payload: "one"})
	q.Push(Item[string]{Index: 2, Payload: "two"})

	for want := 0; want < 3; want++ {
		item, err := q.Pop(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.Index != want {
			t.Errorf("expected index %d, got %d", want, item.Index)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestQueue_PopWaitsForPush(t *testing.T) {
	q := New[int]()
	got := make(chan Item[int], 1)

	go func() {
		item, err := q.Pop(context.Background())
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		got <- item
	}()

	waitForWaiters(t, q, 1)
	q.Push(Item[int]{Index: 7, Payload: 49})

	select {
	case item := <-got:
		if item.Index != 7 || item.Payload != 49 {
			t.Errorf("expected {7 49}, got %+v", item)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer was not woken by push")
	}
}

func TestQueue_SignalCompletionWakesAllWaiters(t *testing.T) {
	const consumers = 8
	q := New[int]()

	var wg sync.WaitGroup
	errs := make(chan error, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Pop(context.Background())
			errs <- err
		}()
	}

	waitForWaiters(t, q, consumers)
	if err := q.SignalCompletion(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitGroupWithin(t, &wg, 2*time.Second)
	close(errs)
	for err := range errs {
		if !errors.Is(err, ErrDrained) {
			t.Errorf("expected ErrDrained, got %v", err)
		}
	}
}

func TestQueue_DrainAfterCompletion(t *testing.T) {
	q := New[int]()
	q.RegisterProducer()
	for i := 0; i < 3; i++ {
		q.Push(Item[int]{Index: i, Payload: i * i})
	}
	q.ProducerDone()

	if q.State() != StateOpen {
		t.Errorf("expected open, got %s", q.State())
	}
	if err := q.SignalCompletion(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.State() != StateDraining {
		t.Errorf("expected draining, got %s", q.State())
	}

	for i := 0; i < 3; i++ {
		item, err := q.Pop(context.Background())
		if err != nil {
			t.Fatalf("pop %d: unexpected error: %v", i, err)
		}
		if item.Index != i {
			t.Errorf("expected index %d, got %d", i, item.Index)
		}
	}

	if _, err := q.Pop(context.Background()); !errors.Is(err, ErrDrained) {
		t.Errorf("expected ErrDrained, got %v", err)
	}
	if q.State() != StateClosed {
		t.Errorf("expected closed, got %s", q.State())
	}
}

func TestQueue_SignalCompletionWithActiveProducers(t *testing.T) {
	q := New[int]()
	q.RegisterProducer()

	err := q.SignalCompletion()
	if !IsCoordination(err) {
		t.Fatalf("expected CoordinationError, got %v", err)
	}
	var ce *CoordinationError
	errors.As(err, &ce)
	if ce.ActiveProducers != 1 {
		t.Errorf("expected 1 active producer, got %d", ce.ActiveProducers)
	}
	if q.State() != StateOpen {
		t.Errorf("failed signal must not change state, got %s", q.State())
	}

	q.ProducerDone()
	if err := q.SignalCompletion(); err != nil {
		t.Errorf("unexpected error after producer finished: %v", err)
	}
}

func TestQueue_SignalCompletionTwice(t *testing.T) {
	q := New[int]()
	if err := q.SignalCompletion(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.SignalCompletion(); !IsCoordination(err) {
		t.Errorf("expected CoordinationError on second signal, got %v", err)
	}
}

func TestQueue_ProtocolViolationsPanic(t *testing.T) {
	tests := []struct {
		name string
		fn   func(q *Queue[int])
	}{
		{"push after completion", func(q *Queue[int]) {
			_ = q.SignalCompletion()
			q.Push(Item[int]{Index: 0})
		}},
		{"register after completion", func(q *Queue[int]) {
			_ = q.SignalCompletion()
			q.RegisterProducer()
		}},
		{"done without register", func(q *Queue[int]) {
			q.ProducerDone()
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				if _, ok := r.(*CoordinationError); !ok {
					t.Errorf("expected *CoordinationError panic, got %T", r)
				}
			}()
			tc.fn(New[int]())
		})
	}
}

func TestQueue_PopCanceled(t *testing.T) {
	const consumers = 4
	q := New[int]()
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	errs := make(chan error, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Pop(ctx)
			errs <- err
		}()
	}

	waitForWaiters(t, q, consumers)
	cancel()

	waitGroupWithin(t, &wg, 2*time.Second)
	close(errs)
	for err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	}
	if q.State() != StateOpen {
		t.Errorf("cancel must not signal completion, got %s", q.State())
	}
}

func TestQueue_TryPop(t *testing.T) {
	q := New[int]()
	if _, ok := q.TryPop(); ok {
		t.Error("expected no item from empty queue")
	}
	q.Push(Item[int]{Index: 3})
	item, ok := q.TryPop()
	if !ok || item.Index != 3 {
		t.Errorf("expected index 3, got %+v ok=%v", item, ok)
	}
}

func TestQueue_ConcurrentNoLossNoDuplicates(t *testing.T) {
	const (
		producers = 8
		consumers = 8
		total     = 1000
	)
	q := New[int]()

	var (
		mu   sync.Mutex
		seen []int
	)
	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				item, err := q.Pop(context.Background())
				if errors.Is(err, ErrDrained) {
					return
				}
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				seen = append(seen, item.Index)
				mu.Unlock()
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := 0; p < producers; p++ {
		q.RegisterProducer()
		pwg.Add(1)
		go func(p int) {
			defer pwg.Done()
			defer q.ProducerDone()
			for i := p; i < total; i += producers {
				q.Push(Item[int]{Index: i, Payload: i})
			}
		}(p)
	}
	pwg.Wait()
	if err := q.SignalCompletion(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitGroupWithin(t, &cwg, 5*time.Second)

	if len(seen) != total {
		t.Fatalf("expected %d items, got %d", total, len(seen))
	}
	sort.Ints(seen)
	for i, idx := range seen {
		if idx != i {
			t.Fatalf("expected index %d at position %d, got %d", i, i, idx)
		}
	}

	st := q.Stats()
	if st.Pushed != total || st.Popped != total {
		t.Errorf("expected pushed=popped=%d, got pushed=%d popped=%d", total, st.Pushed, st.Popped)
	}
	if st.State != StateClosed {
		t.Errorf("expected closed, got %s", st.State)
	}
}

func TestQueue_ReclaimsConsumedPrefix(t *testing.T) {
	q := New[int]()
	for round := 0; round < 3; round++ {
		for i := 0; i < 100; i++ {
			q.Push(Item[int]{Index: round*100 + i})
		}
		for i := 0; i < 100; i++ {
			item, ok := q.TryPop()
			if !ok {
				t.Fatalf("round %d: expected item %d", round, i)
			}
			if item.Index != round*100+i {
				t.Fatalf("expected index %d, got %d", round*100+i, item.Index)
			}
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestSortByIndex(t *testing.T) {
	items := []Item[string]{{Index: 2}, {Index: 0}, {Index: 1}}
	SortByIndex(items)
	got := Indexes(items)
	for i, idx := range got {
		if idx != i {
			t.Errorf("expected %d at %d, got %d", i, i, idx)
		}
	}
}

func waitForWaiters[T any](t *testing.T, q *Queue[T], n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for q.Stats().Waiting < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d consumers to block", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitGroupWithin(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("workers did not exit in time")
	}
}
