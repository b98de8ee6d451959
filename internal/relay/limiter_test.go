package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketExhaustsBurst(t *testing.T) {
	t.Parallel()

	tb := newTokenBucket(3, time.Hour)

	assert.True(t, tb.allow())
	assert.True(t, tb.allow())
	assert.True(t, tb.allow())
	assert.False(t, tb.allow(), "burst should be spent")
}

func TestTokenBucketRefills(t *testing.T) {
	t.Parallel()

	tb := newTokenBucket(2, 100*time.Millisecond)

	require.True(t, tb.allow())
	require.True(t, tb.allow())
	require.False(t, tb.allow())

	time.Sleep(150 * time.Millisecond)
	assert.True(t, tb.allow(), "tokens should refill over time")
}

func TestTokenBucketCapsAtCapacity(t *testing.T) {
	t.Parallel()

	tb := newTokenBucket(2, 50*time.Millisecond)

	// Idle well past several refill intervals; capacity still bounds the burst.
	time.Sleep(200 * time.Millisecond)

	assert.True(t, tb.allow())
	assert.True(t, tb.allow())
	assert.False(t, tb.allow())
}

func TestTokenBucketGuardsBadParameters(t *testing.T) {
	t.Parallel()

	tb := newTokenBucket(0, 0)
	assert.True(t, tb.allow(), "capacity is clamped to at least one token")
	assert.False(t, tb.allow())
}
