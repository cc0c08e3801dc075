package collector

import (
	"time"

	"github.com/kbukum/previewkit/pipeline"
)

// Status is a live view of the current or most recent run.
type Status struct {
	RunID          string            `json:"run_id,omitempty"`
	State          string            `json:"state"`
	Inputs         int               `json:"inputs"`
	Counters       pipeline.Snapshot `json:"counters"`
	InFlight       int64             `json:"in_flight"`
	Errors         int64             `json:"errors"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
}

// Status returns the progress of the running run, or the outcome of the last
// one. It is safe to call from any goroutine.
func (c *Collector) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.current
	if st == nil {
		return Status{State: StateIdle}
	}
	snap := st.counters.Snapshot()
	out := Status{
		RunID:    st.id,
		State:    StateRunning,
		Inputs:   st.inputs,
		Counters: snap,
		InFlight: snap.InFlight(),
		Errors:   snap.Errors(),
	}
	elapsed := time.Since(st.started)
	if st.finished {
		out.State = StateFinished
		elapsed = st.elapsed
	}
	out.ElapsedSeconds = elapsed.Seconds()
	return out
}
