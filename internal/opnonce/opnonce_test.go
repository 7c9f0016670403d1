package opnonce

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_TakeStartsAtZero(t *testing.T) {
	var c Counter
	assert.Equal(t, uint64(0), c.Take())
	assert.Equal(t, uint64(1), c.Take())
}

func TestCounter_NextStartsAtOne(t *testing.T) {
	var c Counter
	assert.Equal(t, uint64(1), c.Next())
	assert.Equal(t, uint64(2), c.Next())
}

func TestCounter_ConcurrentNextIsUnique(t *testing.T) {
	var c Counter
	seen := make(chan uint64, 100)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	uniq := make(map[uint64]bool)
	for v := range seen {
		uniq[v] = true
	}
	assert.Len(t, uniq, 100)
}

func TestEnvCounters_IndependentPerEnv(t *testing.T) {
	var e EnvCounters
	assert.Equal(t, uint64(0), e.Take(0))
	assert.Equal(t, uint64(1), e.Take(0))
	assert.Equal(t, uint64(0), e.Take(1))
}
