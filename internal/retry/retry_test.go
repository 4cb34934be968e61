package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

// TestDoSucceedsAfterFailures verifies the operation result is returned once an attempt succeeds.
func TestDoSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := Do(context.Background(), Policy{Name: "test", MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(context.Context, int) (string, error) {
			calls++
			if calls < 3 {
				return "", errBoom
			}
			return "ok", nil
		}, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 3, calls)
}

// TestDoExhausted checks the attempt ceiling and the error chain.
func TestDoExhausted(t *testing.T) {
	t.Parallel()

	var attempts []int
	_, err := Do(context.Background(), Policy{Name: "test", MaxAttempts: 4, BaseDelay: time.Millisecond},
		func(_ context.Context, attempt int) (int, error) {
			attempts = append(attempts, attempt)
			return 0, errBoom
		})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRetryExhausted)
	require.ErrorIs(t, err, errBoom)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 4, exhausted.Attempts)
	require.Equal(t, []int{0, 1, 2, 3}, attempts)
}

// TestDoPermanentStopsEarly ensures Permanent short-circuits the loop and is unwrapped.
func TestDoPermanentStopsEarly(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Do(context.Background(), Policy{Name: "test", MaxAttempts: 5, BaseDelay: time.Millisecond},
		func(context.Context, int) (struct{}, error) {
			calls++
			return struct{}{}, Permanent(errBoom)
		})
	require.ErrorIs(t, err, errBoom)
	require.NotErrorIs(t, err, ErrRetryExhausted)
	require.Equal(t, 1, calls)
}

// TestDoContextCancelAbortsWait confirms a long backoff does not outlive the context.
func TestDoContextCancelAbortsWait(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := Do(ctx, Policy{Name: "test", MaxAttempts: 3, BaseDelay: time.Hour},
		func(context.Context, int) (int, error) { return 0, errBoom })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

// TestDoRejectsEmptyPolicy guards against a zero attempt ceiling.
func TestDoRejectsEmptyPolicy(t *testing.T) {
	t.Parallel()

	called := false
	_, err := Do(context.Background(), Policy{Name: "empty"}, func(context.Context, int) (int, error) {
		called = true
		return 1, nil
	})
	require.Error(t, err)
	require.False(t, called)
}

// TestBackoff covers the doubling, fixed, capped and jittered schedules.
func TestBackoff(t *testing.T) {
	t.Parallel()

	exp := Policy{BaseDelay: 3 * time.Second}
	assert.Equal(t, 3*time.Second, exp.Backoff(0))
	assert.Equal(t, 6*time.Second, exp.Backoff(1))
	assert.Equal(t, 12*time.Second, exp.Backoff(2))
	assert.Equal(t, 48*time.Second, exp.Backoff(4))

	notes := Policy{BaseDelay: 2 * time.Second}
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second},
		[]time.Duration{notes.Backoff(0), notes.Backoff(1), notes.Backoff(2)})

	fixed := Policy{BaseDelay: 5 * time.Second, Fixed: true}
	assert.Equal(t, 5*time.Second, fixed.Backoff(0))
	assert.Equal(t, 5*time.Second, fixed.Backoff(9))

	capped := Policy{BaseDelay: time.Second, MaxDelay: 4 * time.Second}
	assert.Equal(t, 4*time.Second, capped.Backoff(10))

	jittered := Policy{BaseDelay: time.Second, Jitter: true}
	for i := 0; i < 20; i++ {
		d := jittered.Backoff(1)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 2*time.Second)
	}

	assert.Zero(t, Policy{}.Backoff(3))
}

// TestSleepHonorsContext verifies Sleep returns the context error when cancelled.
func TestSleepHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
}
