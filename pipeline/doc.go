// Package pipeline runs a fixed pool of producers and a fixed pool of
// consumers around a workqueue.Queue.
//
// Each input is handed to exactly one producer together with its index.
// A producer either pushes one tagged item or records a failure and drops
// the index. Consumers pop items until the queue reports it is drained and
// record a success or a failure for each one. Per-item failures never stop
// a run; only invalid setup does, and it does so before any worker starts.
//
// Run starts the consumers first, dispatches the inputs across the
// producers, signals completion once every producer has returned, and then
// waits for the consumers to drain the queue.
//
// # Usage
//
//	report, err := pipeline.Run(ctx, urls, pipeline.Config{Producers: 8, Consumers: 8},
//	    func(ctx context.Context, index int, url string) (Download, error) {
//	        return fetch(ctx, url)
//	    },
//	    func(ctx context.Context, item workqueue.Item[Download]) error {
//	        return save(ctx, item.Index, item.Payload)
//	    },
//	    pipeline.WithLogger(log),
//	)
//
// Payloads that implement Measurer add their size to Report.Units.
package pipeline
