package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_StartsAfterEpoch(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, Epoch, c.Current())
	assert.Equal(t, Epoch.Add(time.Millisecond), c.Now())
}

func TestDeterministicClock_StrictlyIncreasing(t *testing.T) {
	c := NewDeterministicClock()
	prev := c.Now()
	for i := 0; i < 100; i++ {
		next := c.Now()
		assert.True(t, next.After(prev), "tick %d did not advance", i)
		prev = next
	}
}

func TestDeterministicClock_CustomStep(t *testing.T) {
	c := NewDeterministicClockWithStep(time.Second)
	c.Now()
	c.Now()
	assert.Equal(t, Epoch.Add(2*time.Second), c.Current())
	assert.Equal(t, c.At(2), c.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	c := NewDeterministicClock()
	first := c.Now()
	c.Now()
	c.Reset()
	assert.Equal(t, first, c.Now())
}

func TestDeterministicClock_Concurrent(t *testing.T) {
	c := NewDeterministicClock()

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	results := make(chan time.Time, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				results <- c.Now()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[time.Time]bool)
	for ts := range results {
		assert.False(t, seen[ts], "duplicate timestamp %v", ts)
		seen[ts] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
	assert.Equal(t, c.At(goroutines*perGoroutine), c.Current())
}
