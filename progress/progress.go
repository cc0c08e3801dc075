package progress

import (
	"io"
	"sync/atomic"

	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/kbukum/previewkit/pipeline"
)

const barWidth = 64

const (
	labelFetched = "fetched"
	labelDone    = "thumbnails"
)

// Bars draws run progress on w.
type Bars struct {
	w        io.Writer
	progress *mpb.Progress
	fetched  *mpb.Bar
	done     *mpb.Bar

	nFetched atomic.Int64
	nDone    atomic.Int64
	nFailed  atomic.Int64
}

var _ pipeline.Observer = (*Bars)(nil)

// New creates bars that render to w. Nothing is drawn until Started.
func New(w io.Writer) *Bars {
	return &Bars{w: w}
}

// Failed returns the number of items that failed so far.
func (b *Bars) Failed() int64 { return b.nFailed.Load() }

// Started creates the bars. A run without inputs draws nothing.
func (b *Bars) Started(_ string, inputs int) {
	if inputs == 0 {
		return
	}
	b.progress = mpb.New(mpb.WithWidth(barWidth), mpb.WithOutput(b.w))
	b.fetched = b.addBar(labelFetched, int64(inputs))
	b.done = b.addBar(labelDone, int64(inputs))
}

func (b *Bars) addBar(label string, total int64) *mpb.Bar {
	return b.progress.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{W: len(label) + 1, C: decor.DidentRight}),
			decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage(decor.WCSyncWidth)),
	)
}

func (b *Bars) Produced(int, int64) {
	b.nFetched.Add(1)
	b.fetched.Increment()
}

// ProduceFailed advances both bars, since a dropped input never reaches a
// consumer.
func (b *Bars) ProduceFailed(int, error) {
	b.nFailed.Add(1)
	b.nFetched.Add(1)
	b.fetched.Increment()
	b.nDone.Add(1)
	b.done.Increment()
}

func (b *Bars) Consumed(int) {
	b.nDone.Add(1)
	b.done.Increment()
}

func (b *Bars) ConsumeFailed(int, error) {
	b.nFailed.Add(1)
	b.nDone.Add(1)
	b.done.Increment()
}

// Finished completes both bars at their current count and waits for the
// final render.
func (b *Bars) Finished(*pipeline.Report) {
	if b.progress == nil {
		return
	}
	b.fetched.SetTotal(b.nFetched.Load(), true)
	b.done.SetTotal(b.nDone.Load(), true)
	b.progress.Wait()
}
