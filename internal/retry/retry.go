// Package retry wraps fallible operations with bounded, jittered
// exponential backoff.
//
// Classification of retryable vs. fatal errors is delegated to
// apierr.IsRetryable by default; retry-attempt reporting goes through an
// injected Observer so the mechanics stay decoupled from any particular
// logging backend.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/vodlens/internal/apierr"
)

// defaultClassifier is the shared transient-vs-fatal taxonomy.
func defaultClassifier(err error) bool { return apierr.IsRetryable(err) }

// Event describes one scheduled retry.
type Event struct {
	// Attempt is the attempt that just failed, starting at 1.
	Attempt int
	// Delay is the backoff before the next attempt.
	Delay time.Duration
	// Err is the failure that triggered the retry.
	Err error
}

// Observer receives retry events. Implementations must not block.
type Observer interface {
	RetryScheduled(Event)
}

// logObserver is the default Observer; it emits a structured warn event.
type logObserver struct{}

func (logObserver) RetryScheduled(e Event) {
	log.Warn().
		Int("attempt", e.Attempt).
		Dur("delay", e.Delay).
		Err(e.Err).
		Msg("Retrying after failure")
}

// Policy bounds the retry loop.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay seeds the exponential backoff.
	BaseDelay time.Duration
	// MaxDelay caps any single backoff wait.
	MaxDelay time.Duration
	// IsRetryable classifies errors. Nil means apierr.IsRetryable.
	IsRetryable func(error) bool
	// Observer receives retry events. Nil means a zerolog-backed observer.
	Observer Observer

	// sleep is the wait primitive, replaceable in tests.
	sleep func(context.Context, time.Duration) error
}

// DefaultPolicy matches the scoring collaborators' rate-limit behavior.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
	}
}

// Do runs op up to MaxRetries+1 times. Between attempts it waits
// min(MaxDelay, BaseDelay * 2^(attempt-1) * jitter) with jitter drawn
// uniformly from [0.5, 1.0]. Fatal errors abort immediately; on exhaustion
// the last attempt's original error is returned. Context cancellation
// short-circuits both waits and remaining attempts.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	isRetryable := p.IsRetryable
	if isRetryable == nil {
		isRetryable = defaultClassifier
	}
	observer := p.Observer
	if observer == nil {
		observer = logObserver{}
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt > p.MaxRetries {
			return zero, err
		}

		delay := backoff(p.BaseDelay, p.MaxDelay, attempt)
		observer.RetryScheduled(Event{Attempt: attempt, Delay: delay, Err: err})
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// backoff computes the jittered exponential delay for the given attempt.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := float64(base)
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	jitter := 0.5 + rand.Float64()*0.5
	d *= jitter
	if max > 0 && d > float64(max) {
		d = float64(max)
	}
	return time.Duration(d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
