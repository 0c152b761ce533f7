package testutil

import (
	"sync"
	"time"
)

// StepClock provides a thread-safe deterministic timestamp source for tests.
//
// Every call to Now returns the current instant and advances it by a fixed
// step, so a timed phase that reads the clock twice always measures exactly
// one step. The same scenario therefore produces byte-identical event traces
// across runs, which is what golden-file comparison needs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// Epoch is the fixed start instant used by NewStepClock.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewStepClock creates a clock starting at Epoch advancing step per reading.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{now: Epoch, step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Reset rewinds the clock to Epoch for test reuse.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch
}
