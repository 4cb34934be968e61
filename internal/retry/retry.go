// Package retry runs an operation with bounded attempts and exponential or fixed backoff.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/metrics"
)

// ErrRetryExhausted is matched by every error returned after the attempt ceiling.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// Policy bounds one retried operation.
type Policy struct {
	// Name labels log lines and metrics.
	Name        string
	MaxAttempts int
	BaseDelay   time.Duration
	// Fixed waits BaseDelay between every attempt instead of doubling it.
	Fixed bool
	// MaxDelay caps a single wait; zero means uncapped.
	MaxDelay time.Duration
	// Jitter spreads each wait uniformly over [delay/2, delay).
	Jitter bool
}

// Backoff returns the wait after the given failed attempt (0-based).
func (p Policy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	if !p.Fixed {
		scaled := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
		if scaled > float64(math.MaxInt64) {
			scaled = float64(math.MaxInt64)
		}
		delay = time.Duration(scaled)
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter {
		half := delay / 2
		delay = half + randomJitter(delay-half)
	}
	return delay
}

// Validate reports policies that would never run the operation.
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("%s: max attempts must be > 0", p.Name)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("%s: base delay must be >= 0", p.Name)
	}
	return nil
}

// ExhaustedError is returned once every attempt failed.
type ExhaustedError struct {
	Operation string
	Attempts  int
	Last      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempts failed: %v", e.Operation, e.Attempts, e.Last)
}

// Unwrap exposes the last attempt's error.
func (e *ExhaustedError) Unwrap() error { return e.Last }

// Is reports ErrRetryExhausted as a match.
func (e *ExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; Do returns it unwrapped right away.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Option customizes a single Do call.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger logs every failed attempt on the given logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Do invokes op until it succeeds, returns a Permanent error, the context ends,
// or policy.MaxAttempts attempts have failed. There is no wait after the last attempt.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context, attempt int) (T, error), opts ...Option) (T, error) {
	var zero T
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := policy.Validate(); err != nil {
		return zero, err
	}

	var last error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		last = err
		metrics.ObserveRetry(policy.Name)

		remaining := policy.MaxAttempts - attempt - 1
		if remaining == 0 {
			o.logger.Warn("attempt failed, giving up",
				zap.String("operation", policy.Name),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", policy.MaxAttempts),
				zap.Error(err))
			break
		}
		wait := policy.Backoff(attempt)
		o.logger.Warn("attempt failed, retrying",
			zap.String("operation", policy.Name),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", policy.MaxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err))
		if err := Sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	return zero, &ExhaustedError{Operation: policy.Name, Attempts: policy.MaxAttempts, Last: last}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
