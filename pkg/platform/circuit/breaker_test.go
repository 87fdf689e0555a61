package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("redis-cache")
	assert.Equal(t, "redis-cache", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.False(t, b.IsOpen())
}

func TestBreakerOpensOnConsecutiveFailures(t *testing.T) {
	b := New("redis-cache", WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		useFallback, change := b.RecordFailure()
		require.False(t, useFallback, "failure %d", i+1)
		require.False(t, change.Opened)
	}

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())

	// already open: fallback without a second transition
	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)
}

func TestBreakerSuccessWhileClosedResetsFailures(t *testing.T) {
	b := New("redis-cache", WithFailureThreshold(2))

	b.RecordFailure()
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)

	b.RecordFailure()
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreakerClosesAfterConsecutiveSuccesses(t *testing.T) {
	b := New("redis-cache", WithFailureThreshold(1), WithSuccessThreshold(3))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.RecordSuccess()
	b.RecordSuccess()
	// a failure mid-recovery restarts the count
	b.RecordFailure()

	for i := 0; i < 2; i++ {
		usePrimary, change := b.RecordSuccess()
		require.False(t, usePrimary)
		require.False(t, change.Closed)
	}
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreakerReset(t *testing.T) {
	b := New("redis-cache", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())

	useFallback, _ := b.RecordFailure()
	assert.True(t, useFallback, "threshold of one reopens on the next failure")
}

func TestInvalidThresholdsKeepDefaults(t *testing.T) {
	b := New("redis-cache", WithFailureThreshold(0), WithSuccessThreshold(-1))
	for i := 0; i < defaultFailureThreshold-1; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}
