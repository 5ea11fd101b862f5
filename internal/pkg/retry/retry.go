// Package retry runs an operation under a bounded, randomized backoff.
// The operation tags every attempt as done, fatal or retryable; only retryable
// attempts are repeated.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Policy bounds the retry loop.
type Policy struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// DefaultPolicy retries a conflicting unit of work three times with a 100-500ms pause.
var DefaultPolicy = Policy{
	MaxRetries: 3,
	MinBackoff: 100 * time.Millisecond,
	MaxBackoff: 500 * time.Millisecond,
}

// Result is the tagged outcome of one attempt.
type Result[T any] struct {
	Value     T
	Err       error
	Retryable bool
}

// Ok tags a successful attempt.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fatal tags a failed attempt that must not be repeated.
func Fatal[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Again tags a failed attempt that may succeed if repeated.
func Again[T any](err error) Result[T] {
	return Result[T]{Err: err, Retryable: true}
}

var (
	jitterMu sync.Mutex
	jitter   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Backoff returns a random pause in [MinBackoff, MaxBackoff].
func (p Policy) Backoff() time.Duration {
	if p.MaxBackoff <= p.MinBackoff {
		return p.MinBackoff
	}
	span := int64(p.MaxBackoff - p.MinBackoff)
	jitterMu.Lock()
	n := jitter.Int63n(span + 1)
	jitterMu.Unlock()
	return p.MinBackoff + time.Duration(n)
}

// Do runs op until it is done, fails fatally, or the retry budget is spent.
// The attempt number (starting at 0) is passed to op.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) Result[T]) (T, error) {
	var zero T
	var last error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res := op(ctx, attempt)
		if res.Err == nil {
			return res.Value, nil
		}
		if !res.Retryable {
			return zero, res.Err
		}
		last = res.Err

		if attempt == p.MaxRetries {
			break
		}

		timer := time.NewTimer(p.Backoff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxRetries+1, last)
}
