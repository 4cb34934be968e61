package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowPerClient(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	l := New(Config{RequestsPerMinute: 2})
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))

	// Other clients have their own bucket.
	require.True(t, l.Allow("10.0.0.2"))

	now = now.Add(30 * time.Second)
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
}

func TestLimiter_DisabledAllowsEverything(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("client"))
	}
}

func TestLimiter_Prune(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	l := New(DefaultConfig())
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(10 * time.Minute)
	l.Allow("fresh")
	require.Equal(t, 2, l.Len())

	require.Equal(t, 1, l.Prune(5*time.Minute))
	require.Equal(t, 1, l.Len())
}
