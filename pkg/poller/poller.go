// Package poller implements a generic blocking wait for server-side
// asynchronous jobs. The client holds only a handle to the job; the job
// itself lives on the server and is observed through a caller-supplied
// status-fetch function until it reaches a terminal state.
package poller

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"github.com/pkg/errors"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultErrorCap = 5
)

// FetchFunc retrieves the current status payload of the polled job.
// An error return means the fetch itself failed, not that the job is
// still running.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type Option[T any] func(*Poller[T])

// WithInterval sets the delay between status fetches.
func WithInterval[T any](d time.Duration) Option[T] {
	return func(p *Poller[T]) { p.interval = d }
}

// WithJitter sets the standard deviation applied to each interval.
// Zero keeps the interval fixed.
func WithJitter[T any](stdev time.Duration) Option[T] {
	return func(p *Poller[T]) { p.jitter = stdev }
}

// WithErrorCap sets how many consecutive fetch failures are tolerated
// before the last error is surfaced to the caller.
func WithErrorCap[T any](n int) Option[T] {
	return func(p *Poller[T]) { p.errorCap = n }
}

// Poller drives a single job handle to completion. It is a pure
// control-flow wrapper: its only side effects are the fetch calls and
// the delays between them.
type Poller[T any] struct {
	fetch    FetchFunc[T]
	terminal func(T) bool
	interval time.Duration
	jitter   time.Duration
	errorCap int
}

func New[T any](fetch FetchFunc[T], terminal func(T) bool, opts ...Option[T]) *Poller[T] {
	p := &Poller[T]{
		fetch:    fetch,
		terminal: terminal,
		interval: DefaultInterval,
		errorCap: DefaultErrorCap,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait blocks until the job reports a terminal status and returns that
// status payload unmodified. A non-terminal status is never an error and is
// retried indefinitely; only context cancellation or errorCap consecutive
// fetch failures end the wait early. A successful fetch resets the failure
// count.
func (p *Poller[T]) Wait(ctx context.Context) (T, error) {
	var zero T

	t := jitterbug.New(p.interval, &jitterbug.Norm{Stdev: p.jitter})
	defer t.Stop()

	failures := 0
	for {
		// A tick and a cancellation may race in the select below; make sure a
		// cancelled context never triggers another fetch.
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		status, err := p.fetch(ctx)
		switch {
		case err != nil:
			failures++
			if failures >= p.errorCap {
				return zero, errors.Wrapf(err, "status fetch failed %d consecutive times", failures)
			}
		default:
			failures = 0
			if p.terminal(status) {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-t.C:
		}
	}
}
