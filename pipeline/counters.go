package pipeline

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Counters holds the per-run aggregates. Each counter is an independent
// atomic value that only ever grows.
type Counters struct {
	inputs         atomic.Int64
	attempted      atomic.Int64
	produced       atomic.Int64
	producerErrors atomic.Int64
	created        atomic.Int64
	consumerErrors atomic.Int64
	units          atomic.Int64

	mu      sync.Mutex
	dropped []int
	failed  []int
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Inputs         int64 `json:"inputs"`
	Attempted      int64 `json:"attempted"`
	Produced       int64 `json:"produced"`
	ProducerErrors int64 `json:"producer_errors"`
	Created        int64 `json:"created"`
	ConsumerErrors int64 `json:"consumer_errors"`
	Units          int64 `json:"units"`
}

// Errors returns the total number of failed items.
func (s Snapshot) Errors() int64 {
	return s.ProducerErrors + s.ConsumerErrors
}

// InFlight returns the number of produced items not yet consumed.
func (s Snapshot) InFlight() int64 {
	return s.Produced - s.Created - s.ConsumerErrors
}

// Snapshot reads every counter. Counters are read one by one, so a
// snapshot taken mid-run may be slightly skewed between fields.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Inputs:         c.inputs.Load(),
		Attempted:      c.attempted.Load(),
		Produced:       c.produced.Load(),
		ProducerErrors: c.producerErrors.Load(),
		Created:        c.created.Load(),
		ConsumerErrors: c.consumerErrors.Load(),
		Units:          c.units.Load(),
	}
}

func (c *Counters) drop(index int) {
	c.producerErrors.Add(1)
	c.mu.Lock()
	c.dropped = append(c.dropped, index)
	c.mu.Unlock()
}

func (c *Counters) fail(index int) {
	c.consumerErrors.Add(1)
	c.mu.Lock()
	c.failed = append(c.failed, index)
	c.mu.Unlock()
}

// indexes returns sorted copies of the dropped and failed index lists.
func (c *Counters) indexes() (dropped, failed []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped = slices.Clone(c.dropped)
	failed = slices.Clone(c.failed)
	slices.Sort(dropped)
	slices.Sort(failed)
	return dropped, failed
}
