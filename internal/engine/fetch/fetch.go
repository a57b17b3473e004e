// Package fetch materializes selected wheels into the local cache,
// downloading each distinct artifact exactly once across all targets
// being built.
package fetch

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.trai.ch/bext/internal/core/domain"
	"go.trai.ch/bext/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

const (
	defaultParallel = 4
	defaultRetries  = 3
	defaultBackoff  = 500 * time.Millisecond
)

// Orchestrator downloads and validates wheels through the cache store.
// Failures are per-wheel: one unreachable artifact only fails the
// targets that need it.
type Orchestrator struct {
	fetcher ports.WheelFetcher
	store   ports.WheelStore
	tracer  ports.Tracer
	log     ports.Logger

	parallel int
	retries  int
	backoff  time.Duration
}

// Option adjusts orchestrator tuning.
type Option func(*Orchestrator)

// WithParallelism bounds the download worker pool.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallel = n
		}
	}
}

// WithRetryPolicy sets the per-wheel retry budget and the base backoff
// delay, doubled on each attempt.
func WithRetryPolicy(retries int, backoff time.Duration) Option {
	return func(o *Orchestrator) {
		o.retries = retries
		o.backoff = backoff
	}
}

// New creates an Orchestrator.
func New(fetcher ports.WheelFetcher, store ports.WheelStore, tracer ports.Tracer, log ports.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:  fetcher,
		store:    store,
		tracer:   tracer,
		log:      log,
		parallel: defaultParallel,
		retries:  defaultRetries,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result maps wheel content hashes to their outcome: a local cache path
// on success, an error otherwise.
type Result struct {
	paths  map[string]string
	errors map[string]error
}

// Path returns the local path of a fetched wheel.
func (r *Result) Path(wheel domain.WheelDescriptor) (string, bool) {
	path, ok := r.paths[wheel.Hash]
	return path, ok
}

// Err returns the failure recorded for a wheel, nil when it succeeded.
func (r *Result) Err(wheel domain.WheelDescriptor) error {
	return r.errors[wheel.Hash]
}

// Paths returns the full hash-to-path map for assembled targets.
func (r *Result) Paths() map[string]string {
	return r.paths
}

// Failed reports whether any wheel failed.
func (r *Result) Failed() bool {
	return len(r.errors) > 0
}

// FetchAll materializes every listed wheel, deduplicating by content
// hash: a wheel three targets share downloads once. It returns an error
// only when the context is cancelled; individual download failures are
// recorded in the result.
func (o *Orchestrator) FetchAll(ctx context.Context, wheels []domain.WheelDescriptor) (*Result, error) {
	unique := make([]domain.WheelDescriptor, 0, len(wheels))
	seen := make(map[string]struct{}, len(wheels))
	for _, wheel := range wheels {
		if _, dup := seen[wheel.Hash]; dup {
			continue
		}
		seen[wheel.Hash] = struct{}{}
		unique = append(unique, wheel)
	}

	result := &Result{
		paths:  make(map[string]string, len(unique)),
		errors: make(map[string]error),
	}

	var mu sync.Mutex
	var group errgroup.Group
	group.SetLimit(o.parallel)
	for _, wheel := range unique {
		group.Go(func() error {
			path, err := o.fetchOne(ctx, wheel)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.errors[wheel.Hash] = err
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			result.paths[wheel.Hash] = path
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// fetchOne materializes a single wheel, retrying transient download
// failures with exponential backoff. Integrity failures are never
// retried: the source demonstrably serves the wrong bytes.
func (o *Orchestrator) fetchOne(ctx context.Context, wheel domain.WheelDescriptor) (string, error) {
	if o.store.Contains(wheel) {
		return o.store.Path(wheel), nil
	}

	ctx, span := o.tracer.Start(ctx, "download "+wheel.Filename, ports.WithWeight(wheel.Size))
	path, err := o.download(ctx, wheel)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.End()
	return path, nil
}

func (o *Orchestrator) download(ctx context.Context, wheel domain.WheelDescriptor) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 {
			o.log.Warn("retrying wheel download",
				"wheel", wheel.Filename, "attempt", attempt, "error", lastErr.Error())
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(o.backoff << (attempt - 1)):
			}
		}

		path, err := o.store.Materialize(ctx, wheel, func(w io.Writer) error {
			return o.fetcher.Fetch(ctx, wheel, w)
		})
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, domain.ErrDownload) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}
