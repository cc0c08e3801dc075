package pipeline

// Observer receives per-item events while a run is in progress. Methods are
// called concurrently from worker goroutines and must not block.
type Observer interface {
	// Started is called once before any worker starts.
	Started(runID string, inputs int)
	Produced(index int, units int64)
	ProduceFailed(index int, err error)
	Consumed(index int)
	ConsumeFailed(index int, err error)
	// Finished is called once with the final report.
	Finished(report *Report)
}

// NopObserver implements Observer with no-op methods. Embed it to override
// only the events you need.
type NopObserver struct{}

func (NopObserver) Started(string, int)      {}
func (NopObserver) Produced(int, int64)      {}
func (NopObserver) ProduceFailed(int, error) {}
func (NopObserver) Consumed(int)             {}
func (NopObserver) ConsumeFailed(int, error) {}
func (NopObserver) Finished(*Report)         {}

// Measurer is implemented by payloads that carry a size, such as a byte
// count. The sizes of produced payloads are summed into Report.Units.
type Measurer interface {
	Units() int64
}

type observers []Observer

func (obs observers) Started(runID string, inputs int) {
	for _, o := range obs {
		o.Started(runID, inputs)
	}
}

func (obs observers) Produced(index int, units int64) {
	for _, o := range obs {
		o.Produced(index, units)
	}
}

func (obs observers) ProduceFailed(index int, err error) {
	for _, o := range obs {
		o.ProduceFailed(index, err)
	}
}

func (obs observers) Consumed(index int) {
	for _, o := range obs {
		o.Consumed(index)
	}
}

func (obs observers) ConsumeFailed(index int, err error) {
	for _, o := range obs {
		o.ConsumeFailed(index, err)
	}
}

func (obs observers) Finished(report *Report) {
	for _, o := range obs {
		o.Finished(report)
	}
}
