// Package workqueue provides a monitor-protected FIFO queue that connects a
// pool of producers to a pool of consumers.
//
// The queue pairs a mutex with a condition variable. Consumers block in Pop
// while the queue is empty; producers never block. Once every producer has
// finished, the driver calls SignalCompletion, which wakes every waiting
// consumer so that each one can drain what is left and exit.
//
// # Lifecycle
//
//	Open      producing not done
//	Draining  producing done, items remain
//	Closed    producing done, queue empty
//
// Transitions only move forward.
//
// # Usage
//
//	q := workqueue.New[string]()
//	q.RegisterProducer()
//	go func() {
//	    defer q.ProducerDone()
//	    q.Push(workqueue.Item[string]{Index: 0, Payload: "zero"})
//	}()
//
//	for {
//	    item, err := q.Pop(ctx)
//	    if errors.Is(err, workqueue.ErrDrained) {
//	        break
//	    }
//	    ...
//	}
package workqueue
