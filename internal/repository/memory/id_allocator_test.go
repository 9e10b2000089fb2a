package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdAllocatorConcurrentNextIsUnique(t *testing.T) {
	a := NewIdAllocator()

	const n = 1000
	results := make(chan int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- a.Next(KindMessage)
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for id := range results {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	// The next value is above everything handed out so far.
	assert.Equal(t, int64(n+1), a.Next(KindMessage))
}

func TestIdAllocatorKindsAreIndependent(t *testing.T) {
	a := NewIdAllocator()

	assert.Equal(t, int64(1), a.Next(KindChatbot))
	assert.Equal(t, int64(2), a.Next(KindChatbot))
	assert.Equal(t, int64(1), a.Next(KindSession))
	assert.Equal(t, int64(3), a.Next(KindChatbot))
}

func TestIdAllocatorRejectsUnknownKind(t *testing.T) {
	a := NewIdAllocator()
	assert.Panics(t, func() { a.Next(kindCount) })
}
