package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/cache"
)

func TestLRU_Add(t *testing.T) {
	t.Parallel()

	c := cache.New[string, struct{}](3)

	assert.True(t, c.Add("a", struct{}{}))
	assert.False(t, c.Add("a", struct{}{}), "second add of the same key")
	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("missing"))
	assert.Equal(t, 1, c.Len())
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	t.Run("oldest goes first", func(t *testing.T) {
		t.Parallel()

		c := cache.New[string, int](2)
		c.Add("a", 1)
		c.Add("b", 2)
		c.Add("c", 3)

		assert.False(t, c.Contains("a"))
		assert.True(t, c.Contains("b"))
		assert.True(t, c.Contains("c"))
		assert.Equal(t, 2, c.Len())
	})

	t.Run("repeated add refreshes recency", func(t *testing.T) {
		t.Parallel()

		c := cache.New[string, int](2)
		c.Add("a", 1)
		c.Add("b", 2)
		c.Add("a", 1)
		c.Add("c", 3)

		assert.True(t, c.Contains("a"))
		assert.False(t, c.Contains("b"))
	})

	t.Run("contains does not refresh recency", func(t *testing.T) {
		t.Parallel()

		c := cache.New[string, int](2)
		c.Add("a", 1)
		c.Add("b", 2)
		assert.True(t, c.Contains("a"))
		c.Add("c", 3)

		assert.False(t, c.Contains("a"))
	})
}

func TestLRU_InvalidCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { cache.New[string, int](0) })
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.New[string, int](64)
	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				if c.Add(fmt.Sprintf("k%d", (i*100+j)%32), j) {
					mu.Lock()
					added++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 32, added, "each key added exactly once")
	assert.Equal(t, 32, c.Len())
}
