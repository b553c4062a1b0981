package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Class tells the policy whether an error is worth another attempt.
type Class int

const (
	// Retryable errors are transient (network failures, rate limits) and
	// justify another attempt after backoff.
	Retryable Class = iota

	// Fatal errors mean the operation cannot succeed for this input no
	// matter how often it is retried.
	Fatal
)

// Classifier maps an operation error to a Class. A nil classifier treats
// every error as retryable.
type Classifier func(error) Class

// Policy runs operations with bounded retries and exponential backoff.
// A Policy holds no per-call state and is safe for concurrent use.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; each further
	// attempt doubles it, capped at MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Zero means no cap.
	MaxDelay time.Duration

	// Jitter adds up to one BaseDelay of random slack to each backoff so
	// concurrent workers retrying against the same upstream spread out.
	Jitter bool
}

// ExhaustedError is returned when every allowed attempt failed with a
// retryable error. It wraps the last error observed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do runs op until it succeeds, fails fatally, the context is cancelled, or
// MaxAttempts retryable failures occurred. Fatal errors are returned as-is;
// exhaustion is reported as *ExhaustedError wrapping the last error.
func (p Policy) Do(ctx context.Context, op func(context.Context) error, classify Classifier) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		if classify != nil && classify(err) == Fatal {
			return err
		}
		last = err

		if attempt == attempts {
			break
		}
		if err := p.sleep(ctx, attempt); err != nil {
			return err
		}
	}

	return &ExhaustedError{Attempts: attempts, Last: last}
}

// sleep blocks for the backoff delay of the given attempt, waking early if
// the context is cancelled.
func (p Policy) sleep(ctx context.Context, attempt int) error {
	delay := p.delayFor(attempt)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// delayFor computes the backoff for the given 1-based attempt number:
// BaseDelay * 2^(attempt-1), capped at MaxDelay, plus optional jitter.
func (p Policy) delayFor(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter && p.BaseDelay > 0 {
		delay += time.Duration(rand.Int63n(int64(p.BaseDelay)))
	}
	return delay
}

// IsExhausted reports whether err is an ExhaustedError.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}
