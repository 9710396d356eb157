package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPLimiter_BurstThenRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewIPLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestIPLimiter_Cleanup(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewIPLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(10 * time.Minute)
	l.Allow("b")

	assert.Equal(t, 1, l.Cleanup(5*time.Minute))
	assert.Equal(t, 1, l.Len())
}
