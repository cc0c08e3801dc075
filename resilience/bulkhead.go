package resilience

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Bulkhead limits how many downloads run against one host at a time.
// A caller over the limit waits for a slot or for its context to end.
type Bulkhead struct {
	name     string
	capacity int
	sem      *semaphore.Weighted
	inUse    atomic.Int64
}

// NewBulkhead returns a bulkhead with limit slots. A limit of zero or less
// never blocks.
func NewBulkhead(name string, limit int) *Bulkhead {
	b := &Bulkhead{name: name}
	if limit > 0 {
		b.capacity = limit
		b.sem = semaphore.NewWeighted(int64(limit))
	}
	return b
}

// Execute runs fn while holding one slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if b.sem == nil {
		return fn()
	}
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	b.inUse.Add(1)
	defer func() {
		b.inUse.Add(-1)
		b.sem.Release(1)
	}()
	return fn()
}

// InUse is the number of calls currently holding a slot.
func (b *Bulkhead) InUse() int { return int(b.inUse.Load()) }

// Capacity is the slot count, 0 when unlimited.
func (b *Bulkhead) Capacity() int { return b.capacity }

func (b *Bulkhead) Name() string { return b.name }
