package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans. Build and download
// steps run inside spans so progress surfaces per unit of work.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals the set of build targets about to execute.
	EmitPlan(ctx context.Context, targets []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Weight is the total byte count a span expects to process, used
	// for progress reporting. Zero means unknown.
	Weight int64
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithWeight sets the expected byte count for a span.
func WithWeight(n int64) SpanOption {
	return func(c *SpanConfig) { c.Weight = n }
}
