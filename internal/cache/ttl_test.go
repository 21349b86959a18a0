package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_SetGet(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestTTL_Miss(t *testing.T) {
	c := New()
	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestTTL_Expiry(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"), time.Minute)

	_, ok := c.Get("k")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTL_NonPositiveTTLStoresNothing(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTL_Delete(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), time.Minute)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTL_Purge(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("live", []byte("1"), time.Hour)
	c.Set("dead1", []byte("2"), time.Minute)
	c.Set("dead2", []byte("3"), time.Minute)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, c.Purge())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("live")
	assert.True(t, ok)
}
