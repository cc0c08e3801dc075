package workqueue

import "sort"

// Item is a unit of work handed from a producer to a consumer.
// Index is the position of the input the item was produced from.
type Item[T any] struct {
	Index   int
	Payload T
}

// SortByIndex orders items by their origin index.
func SortByIndex[T any](items []Item[T]) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Index < items[j].Index
	})
}

// Indexes returns the origin indexes of items, in item order.
func Indexes[T any](items []Item[T]) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Index
	}
	return out
}
