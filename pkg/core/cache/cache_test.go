package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/capability-tree/pkg/core/graph"
)

func computed(id string) *graph.ComputedTree {
	return &graph.ComputedTree{ID: id, Name: id}
}

func TestMemoryComputedCache_SetGet(t *testing.T) {
	c := NewMemoryComputedCache(time.Minute, time.Minute)
	defer c.Close()

	require.NoError(t, c.Set("t1", "r1", computed("t1")))

	got, ok := c.Get("t1", "r1")
	require.True(t, ok)
	assert.Equal(t, "t1", got.ID)

	_, ok = c.Get("t1", "r2")
	assert.False(t, ok, "不同修订不应命中")

	_, ok = c.Get("", "r1")
	assert.False(t, ok)
}

func TestMemoryComputedCache_Expire(t *testing.T) {
	c := NewMemoryComputedCache(10*time.Millisecond, time.Hour)
	defer c.Close()

	require.NoError(t, c.Set("t1", "r1", computed("t1")))
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("t1", "r1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "过期条目在读取时删除")
}

func TestMemoryComputedCache_BackgroundCleanup(t *testing.T) {
	c := NewMemoryComputedCache(5*time.Millisecond, 10*time.Millisecond)
	defer c.Close()

	require.NoError(t, c.Set("t1", "r1", computed("t1")))
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryComputedCache_Invalidate(t *testing.T) {
	c := NewMemoryComputedCache(time.Minute, time.Minute)
	defer c.Close()

	require.NoError(t, c.Set("t1", "r1", computed("t1")))
	require.NoError(t, c.Set("t1", "r2", computed("t1")))
	require.NoError(t, c.Set("t10", "r1", computed("t10")))

	require.NoError(t, c.Invalidate("t1"))
	_, ok := c.Get("t1", "r2")
	assert.False(t, ok)
	_, ok = c.Get("t10", "r1")
	assert.True(t, ok, "前缀相同的其他树不受影响")

	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryComputedCache_CloseTwice(t *testing.T) {
	c := NewMemoryComputedCache(time.Minute, time.Minute)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestNoopCache(t *testing.T) {
	var c ComputedCache = NoopCache{}
	require.NoError(t, c.Set("t1", "r1", computed("t1")))
	_, ok := c.Get("t1", "r1")
	assert.False(t, ok)
}
