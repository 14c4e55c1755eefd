package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowPerKey(t *testing.T) {
	l := New(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "other keys have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"), "refilled after one second")
	assert.Equal(t, 2, l.Len())
}

func TestSweepDropsIdleKeys(t *testing.T) {
	l := New(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(time.Hour)
	l.mu.Lock()
	l.sweep(now)
	l.mu.Unlock()
	assert.Equal(t, 0, l.Len())
}
