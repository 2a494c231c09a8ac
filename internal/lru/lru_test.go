package lru

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetPut(t *testing.T) {
	c := New[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, 2, st.Size)
	assert.Equal(t, 3, st.Capacity)
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // a is now more recent than b
	c.Put("c", 3)

	_, ok := c.Peek("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Peek("a")
	assert.True(t, ok)
	_, ok = c.Peek("c")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestCache_NeverEvictsMoreRecentlyTouched(t *testing.T) {
	c := New[int, int](5)
	for i := 0; i < 5; i++ {
		c.Put(i, i)
	}
	// Touch in reverse so 4 is oldest and 0 newest.
	for i := 4; i >= 0; i-- {
		c.Get(i)
	}
	var evicted []int
	c.OnEvict(func(k, _ int) { evicted = append(evicted, k) })

	c.Put(10, 10)
	c.Put(11, 11)
	assert.Equal(t, []int{4, 3}, evicted)
	assert.Equal(t, []int{2, 1, 0, 10, 11}, c.Keys())
}

func TestCache_PutExistingRefreshesValueAndRecency(t *testing.T) {
	c := New[string, string](2)
	c.Put("a", "old")
	c.Put("b", "b")
	c.Put("a", "new")
	c.Put("c", "c")

	v, ok := c.Peek("a")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	_, ok = c.Peek("b")
	assert.False(t, ok)
}

func TestCache_PeekDoesNotTouch(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Peek("a")
	c.Put("c", 3)

	_, ok := c.Peek("a")
	assert.False(t, ok)
}

func TestCache_RemoveAndRemoveFunc(t *testing.T) {
	c := New[string, int](10)
	c.Put("/a.md#x", 1)
	c.Put("/a.md#y", 2)
	c.Put("/b.md#x", 3)

	assert.True(t, c.Remove("/b.md#x"))
	assert.False(t, c.Remove("/b.md#x"))

	n := c.RemoveFunc(func(k string, _ int) bool { return strings.HasPrefix(k, "/a.md") })
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Clear(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Get("a")
	c.Clear()

	assert.Equal(t, Stats{Capacity: 2}, c.Stats())
}

func TestCache_NonPositiveCapacity(t *testing.T) {
	c := New[string, int](0)
	c.Put("a", 1)
	c.Put("b", 2)
	assert.Equal(t, 1, c.Len())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int, int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Put(g*1000+i, i)
				c.Get(g*1000 + i/2)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
