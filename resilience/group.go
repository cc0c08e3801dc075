package resilience

import "sync"

// Group lazily creates one value per key, typically one breaker or
// bulkhead per remote host.
type Group[T any] struct {
	mu    sync.Mutex
	items map[string]T
	newFn func(key string) T
}

// NewGroup creates a Group that builds missing entries with newFn.
func NewGroup[T any](newFn func(key string) T) *Group[T] {
	return &Group[T]{items: make(map[string]T), newFn: newFn}
}

// Get returns the entry for key, creating it on first use.
func (g *Group[T]) Get(key string) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	item, ok := g.items[key]
	if !ok {
		item = g.newFn(key)
		g.items[key] = item
	}
	return item
}

// Each calls fn for every entry created so far.
func (g *Group[T]) Each(fn func(key string, item T)) {
	g.mu.Lock()
	snapshot := make(map[string]T, len(g.items))
	for k, v := range g.items {
		snapshot[k] = v
	}
	g.mu.Unlock()
	for k, v := range snapshot {
		fn(k, v)
	}
}

// Len returns the number of entries.
func (g *Group[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}
