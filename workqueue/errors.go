package workqueue

import (
	"errors"
	"fmt"
)

// ErrDrained is returned by Pop once producing is done and the queue is empty.
var ErrDrained = errors.New("workqueue: drained")

// CoordinationError reports a broken producer/consumer protocol. It never
// occurs when the queue is driven correctly.
type CoordinationError struct {
	// Op is the queue operation that detected the violation.
	Op string
	// ActiveProducers is the number of producers still registered.
	ActiveProducers int
	// Reason describes the violation.
	Reason string
}

func (e *CoordinationError) Error() string {
	return fmt.Sprintf("workqueue: %s: %s (active producers: %d)", e.Op, e.Reason, e.ActiveProducers)
}

// IsCoordination reports whether err is a *CoordinationError.
func IsCoordination(err error) bool {
	var ce *CoordinationError
	return errors.As(err, &ce)
}
