package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant DeterministicClock starts from.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock provides reproducible, strictly increasing timestamps
// for tests.
//
// Each call to Now advances the clock by a fixed step, so two runs of the
// same test stamp identical times on identical messages.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	step time.Duration
	n    int64
}

// NewDeterministicClock creates a clock that ticks one millisecond per call.
//
// The first call to Now() returns Epoch + 1ms.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{step: time.Millisecond}
}

// NewDeterministicClockWithStep creates a clock with a custom tick.
func NewDeterministicClockWithStep(step time.Duration) *DeterministicClock {
	return &DeterministicClock{step: step}
}

// Now advances the clock and returns the new instant.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return Epoch.Add(time.Duration(c.n) * c.step)
}

// Current returns the current instant without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Epoch.Add(time.Duration(c.n) * c.step)
}

// At returns the instant the clock reports after n ticks, without touching
// the clock. Useful for building expected values.
func (c *DeterministicClock) At(n int64) time.Time {
	return Epoch.Add(time.Duration(n) * c.step)
}

// Reset rewinds the clock to Epoch.
//
// After Reset(), the next call to Now() returns Epoch + step.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
