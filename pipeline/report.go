package pipeline

import (
	"fmt"
	"time"

	"github.com/kbukum/previewkit/errors"
)

// Report is the final accounting of one run.
type Report struct {
	RunID          string        `json:"run_id"`
	Inputs         int64         `json:"inputs"`
	Attempted      int64         `json:"attempted"`
	Produced       int64         `json:"produced"`
	ProducerErrors int64         `json:"producer_errors"`
	Created        int64         `json:"created"`
	ConsumerErrors int64         `json:"consumer_errors"`
	Errors         int64         `json:"errors"`
	Units          int64         `json:"units"`
	Dropped        []int         `json:"dropped,omitempty"`
	Failed         []int         `json:"failed,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
	Canceled       bool          `json:"canceled"`
}

// ElapsedMillis returns the wall time of the run in milliseconds.
func (r *Report) ElapsedMillis() int64 {
	return r.Elapsed.Milliseconds()
}

// Check verifies the accounting identities of a finished run. Canceled runs
// stop early and only have to satisfy the producer-side identity.
func (r *Report) Check() error {
	if r.Produced+r.ProducerErrors != r.Attempted {
		return errors.Coordination(fmt.Sprintf(
			"produced (%d) + producer errors (%d) != attempted (%d)",
			r.Produced, r.ProducerErrors, r.Attempted), nil)
	}
	if r.Canceled {
		return nil
	}
	if r.Attempted != r.Inputs {
		return errors.Coordination(fmt.Sprintf("attempted (%d) != inputs (%d)", r.Attempted, r.Inputs), nil)
	}
	if r.Created+r.ConsumerErrors != r.Produced {
		return errors.Coordination(fmt.Sprintf(
			"created (%d) + consumer errors (%d) != produced (%d)",
			r.Created, r.ConsumerErrors, r.Produced), nil)
	}
	if int64(len(r.Dropped)) != r.ProducerErrors || int64(len(r.Failed)) != r.ConsumerErrors {
		return errors.Coordination("index lists do not match error counters", nil)
	}
	return nil
}

func newReport(runID string, c *Counters, elapsed time.Duration, canceled bool) *Report {
	s := c.Snapshot()
	dropped, failed := c.indexes()
	return &Report{
		RunID:          runID,
		Inputs:         s.Inputs,
		Attempted:      s.Attempted,
		Produced:       s.Produced,
		ProducerErrors: s.ProducerErrors,
		Created:        s.Created,
		ConsumerErrors: s.ConsumerErrors,
		Errors:         s.Errors(),
		Units:          s.Units,
		Dropped:        dropped,
		Failed:         failed,
		Elapsed:        elapsed,
		Canceled:       canceled,
	}
}
