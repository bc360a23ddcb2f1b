// Package retrier re-runs failed operations on a configurable delay schedule.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInterval    = 1 * time.Second
	defaultMaxInterval = 30 * time.Second
	defaultMultiplier  = 2.0
	defaultMaxRetries  = 5
	defaultJitter      = 0.1
)

// Retrier implements backoff between attempts. With the default options the
// delay grows exponentially with jitter; a multiplier of 1 and zero jitter
// give a fixed delay.
type Retrier struct {
	interval    time.Duration
	maxInterval time.Duration
	multiplier  float64
	maxRetries  int
	jitter      float64
}

// Option configures the Retrier.
type Option func(*Retrier)

// WithInterval sets the delay before the first retry.
func WithInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.interval = d
	}
}

// WithMaxInterval caps the delay between retries.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.maxInterval = d
	}
}

// WithMultiplier sets the backoff multiplier applied after each retry.
func WithMultiplier(m float64) Option {
	return func(r *Retrier) {
		r.multiplier = m
	}
}

// WithMaxRetries sets the number of retries after the initial attempt.
// A negative value removes the limit: the operation is re-run until it
// succeeds or the context is cancelled.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		r.jitter = j
	}
}

// New creates a Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		interval:    defaultInterval,
		maxInterval: defaultMaxInterval,
		multiplier:  defaultMultiplier,
		maxRetries:  defaultMaxRetries,
		jitter:      defaultJitter,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Fixed creates a Retrier that re-arms with the same delay on every failure,
// without an attempt limit.
func Fixed(d time.Duration) *Retrier {
	return New(WithInterval(d), WithMultiplier(1), WithJitter(0), WithMaxRetries(-1))
}

// Do executes fn until it succeeds, the retry budget is exhausted or the
// context is cancelled.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	interval := r.interval

	for attempt := 0; r.maxRetries < 0 || attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			jitter := (rand.Float64()*2 - 1) * r.jitter * float64(interval)
			sleep := time.Duration(float64(interval) + jitter)
			if sleep < 0 {
				sleep = 0
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}

			interval = time.Duration(float64(interval) * r.multiplier)
			if interval > r.maxInterval {
				interval = r.maxInterval
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
	}

	return err
}

// DoWithData executes fn with retries and returns its value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
