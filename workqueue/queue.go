package workqueue

import (
	"context"
	"sync"
)

// State is the lifecycle phase of a Queue.
type State int

const (
	// StateOpen means producers may still push.
	StateOpen State = iota
	// StateDraining means producing is done but items remain.
	StateDraining
	// StateClosed means producing is done and the queue is empty.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time view of queue activity.
type Stats struct {
	Pushed          int64
	Popped          int64
	Pending         int
	Waiting         int
	ActiveProducers int
	State           State
}

// Queue is an unbounded FIFO guarded by a mutex and a condition variable.
// All fields below mu are only touched while holding mu.
type Queue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	items   []Item[T]
	head    int
	done    bool
	active  int
	waiting int
	pushed  int64
	popped  int64
}

// New creates an empty, open queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// RegisterProducer records one more active producer. It must be called
// before the producer starts pushing.
func (q *Queue[T]) RegisterProducer() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done {
		panic(&CoordinationError{Op: "register producer", ActiveProducers: q.active, Reason: "completion already signaled"})
	}
	q.active++
}

// ProducerDone records that a registered producer has returned.
func (q *Queue[T]) ProducerDone() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active == 0 {
		panic(&CoordinationError{Op: "producer done", Reason: "no producer registered"})
	}
	q.active--
}

// Push appends item and wakes one waiting consumer. It never blocks.
// Pushing after SignalCompletion is a protocol violation and panics.
func (q *Queue[T]) Push(item Item[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done {
		panic(&CoordinationError{Op: "push", ActiveProducers: q.active, Reason: "push after completion"})
	}
	q.items = append(q.items, item)
	q.pushed++
	q.cond.Signal()
}

// Pop removes and returns the oldest item. While the queue is empty and
// producing is not done it waits; the predicate is re-checked after every
// wake. It returns ErrDrained once the queue is empty and completion has
// been signaled, or ctx.Err() if ctx is canceled while waiting.
func (q *Queue[T]) Pop(ctx context.Context) (Item[T], error) {
	stop := context.AfterFunc(ctx, q.wakeAll)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.lenLocked() == 0 && !q.done {
		if err := ctx.Err(); err != nil {
			var zero Item[T]
			return zero, err
		}
		q.waiting++
		q.cond.Wait()
		q.waiting--
	}

	if q.lenLocked() == 0 {
		var zero Item[T]
		return zero, ErrDrained
	}
	return q.shiftLocked(), nil
}

// TryPop removes and returns the oldest item without waiting.
func (q *Queue[T]) TryPop() (Item[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lenLocked() == 0 {
		var zero Item[T]
		return zero, false
	}
	return q.shiftLocked(), true
}

// SignalCompletion marks producing as finished and wakes every waiting
// consumer. It fails without changing state if producers are still
// registered or if completion was already signaled.
func (q *Queue[T]) SignalCompletion() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done {
		return &CoordinationError{Op: "signal completion", ActiveProducers: q.active, Reason: "completion already signaled"}
	}
	if q.active > 0 {
		return &CoordinationError{Op: "signal completion", ActiveProducers: q.active, Reason: "producers still active"}
	}
	q.done = true
	q.cond.Broadcast()
	return nil
}

// State returns the current lifecycle phase.
func (q *Queue[T]) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stateLocked()
}

// Len returns the number of items waiting to be popped.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Stats returns a snapshot of queue counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pushed:          q.pushed,
		Popped:          q.popped,
		Pending:         q.lenLocked(),
		Waiting:         q.waiting,
		ActiveProducers: q.active,
		State:           q.stateLocked(),
	}
}

func (q *Queue[T]) wakeAll() {
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *Queue[T]) stateLocked() State {
	switch {
	case !q.done:
		return StateOpen
	case q.lenLocked() > 0:
		return StateDraining
	default:
		return StateClosed
	}
}

func (q *Queue[T]) lenLocked() int {
	return len(q.items) - q.head
}

func (q *Queue[T]) shiftLocked() Item[T] {
	item := q.items[q.head]
	var zero Item[T]
	q.items[q.head] = zero
	q.head++
	q.popped++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 32 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return item
}
