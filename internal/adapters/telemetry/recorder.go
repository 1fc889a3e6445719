package telemetry

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanTiming summarizes one finished span.
type SpanTiming struct {
	Name     string
	Duration time.Duration
	Err      string
}

// Recorder implements sdktrace.SpanProcessor and keeps a timing summary of
// every finished span so the CLI can print it with --trace.
type Recorder struct {
	mu    sync.Mutex
	spans []SpanTiming
}

var _ sdktrace.SpanProcessor = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnStart is called when a span starts.
func (r *Recorder) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (r *Recorder) OnEnd(s sdktrace.ReadOnlySpan) {
	timing := SpanTiming{
		Name:     s.Name(),
		Duration: s.EndTime().Sub(s.StartTime()),
	}
	if s.Status().Code == codes.Error {
		timing.Err = s.Status().Description
	}

	r.mu.Lock()
	r.spans = append(r.spans, timing)
	r.mu.Unlock()
}

// Shutdown is called when the SDK shuts down.
func (r *Recorder) Shutdown(_ context.Context) error {
	return nil
}

// ForceFlush is a no-op; spans are recorded synchronously.
func (r *Recorder) ForceFlush(_ context.Context) error {
	return nil
}

// Spans returns the recorded spans, slowest first.
func (r *Recorder) Spans() []SpanTiming {
	r.mu.Lock()
	out := slices.Clone(r.spans)
	r.mu.Unlock()

	slices.SortStableFunc(out, func(a, b SpanTiming) int {
		return cmp.Compare(b.Duration, a.Duration)
	})
	return out
}
