package progress

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/previewkit/errors"
	"github.com/kbukum/previewkit/logger"
	"github.com/kbukum/previewkit/pipeline"
	"github.com/kbukum/previewkit/workqueue"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func finishWithin(t *testing.T, b *Bars, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		b.Finished(&pipeline.Report{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("Finished did not return in time")
	}
}

func TestBarsCompleteOnFinished(t *testing.T) {
	tests := []struct {
		name       string
		inputs     int
		produced   int
		dropped    int
		consumed   int
		failed     int
		wantFailed int64
	}{
		{"all created", 3, 3, 0, 3, 0, 0},
		{"mixed failures", 5, 4, 1, 2, 2, 3},
		{"stopped early", 10, 2, 0, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out syncBuffer
			b := New(&out)
			b.Started("run", tt.inputs)
			for i := 0; i < tt.produced; i++ {
				b.Produced(i, 10)
			}
			for i := 0; i < tt.dropped; i++ {
				b.ProduceFailed(i, errors.FetchFailed(i, "x", nil))
			}
			for i := 0; i < tt.consumed; i++ {
				b.Consumed(i)
			}
			for i := 0; i < tt.failed; i++ {
				b.ConsumeFailed(i, fmt.Errorf("boom"))
			}
			finishWithin(t, b, 5*time.Second)

			if b.Failed() != tt.wantFailed {
				t.Errorf("expected %d failed, got %d", tt.wantFailed, b.Failed())
			}
			if !strings.Contains(out.String(), labelDone) {
				t.Errorf("expected %q in output, got %q", labelDone, out.String())
			}
		})
	}
}

func TestBarsWithoutInputs(t *testing.T) {
	var out syncBuffer
	b := New(&out)
	b.Started("run", 0)
	finishWithin(t, b, time.Second)
	if out.String() != "" {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestBarsFinishedWithoutStarted(t *testing.T) {
	b := New(&syncBuffer{})
	finishWithin(t, b, time.Second)
}

func TestBarsObservePipeline(t *testing.T) {
	var out syncBuffer
	b := New(&out)

	inputs := make([]int, 20)
	for i := range inputs {
		inputs[i] = i
	}
	produce := func(_ context.Context, _ int, in int) (int, error) {
		if in%5 == 0 {
			return 0, errors.FetchFailed(in, "x", nil)
		}
		return in, nil
	}
	consume := func(context.Context, workqueue.Item[int]) error { return nil }

	report, err := pipeline.Run(context.Background(), inputs, pipeline.Config{Producers: 3, Consumers: 2},
		produce, consume, pipeline.WithObserver(b), pipeline.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if b.Failed() != report.Errors {
		t.Errorf("expected %d failed, got %d", report.Errors, b.Failed())
	}
}
