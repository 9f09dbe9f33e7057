package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetSet(t *testing.T) {
	c := New[string](time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v")
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCache_Expiry(t *testing.T) {
	c := New[int](time.Minute)
	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.Set("k", 42)

	now = now.Add(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Invalidate(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("k", "v")
	c.Invalidate("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_ZeroTTLDisables(t *testing.T) {
	c := New[string](0)
	c.Set("k", "v")

	_, ok := c.Get("k")
	assert.False(t, ok)
}
