// Package telemetry implements the tracer port on top of progrock:
// one vertex per unit of work, with logs and errors attached.
package telemetry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/bext/internal/core/ports"
)

// Tracer implements ports.Tracer by recording progrock vertices.
type Tracer struct {
	rec *progrock.Recorder
}

// New creates a tracer whose progress stream is rendered as log lines.
func New(log ports.Logger) *Tracer {
	return NewTracer(&logWriter{log: log})
}

// NewTracer creates a tracer writing to the given progrock writer.
func NewTracer(w progrock.Writer) *Tracer {
	return &Tracer{rec: progrock.NewRecorder(w)}
}

// Start begins a vertex for one unit of work.
func (t *Tracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	vertex := t.rec.Vertex(digest.FromString(name), name)
	span := &Span{vertex: vertex}
	if cfg.Weight > 0 {
		span.SetAttribute("bytes", cfg.Weight)
	}
	return ctx, span
}

// EmitPlan records the set of build targets about to execute as a
// single immediately-completed vertex.
func (t *Tracer) EmitPlan(ctx context.Context, targets []string) {
	vertex := t.rec.Vertex(digest.FromString("plan"), "plan")
	_, _ = fmt.Fprintln(vertex.Stdout(), strings.Join(targets, "\n"))
	vertex.Done(nil)
}

// Close flushes the recording session.
func (t *Tracer) Close() error {
	t.rec.Close()
	return nil
}

// Span implements ports.Span wrapping a progrock vertex recorder.
type Span struct {
	vertex *progrock.VertexRecorder

	mu   sync.Mutex
	done bool
}

// Write forwards log output to the vertex's stdout stream.
func (s *Span) Write(p []byte) (int, error) {
	return s.vertex.Stdout().Write(p)
}

// End completes the vertex. A span that recorded an error keeps it.
func (s *Span) End() {
	s.complete(nil)
}

// RecordError completes the vertex with the error attached.
func (s *Span) RecordError(err error) {
	s.complete(err)
}

// SetAttribute attaches a key-value pair to the vertex's log stream.
func (s *Span) SetAttribute(key string, value any) {
	_, _ = fmt.Fprintf(s.vertex.Stderr(), "%s=%v\n", key, value)
}

func (s *Span) complete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.vertex.Done(err)
}
