package testutil

import (
	"sync"

	"github.com/roach88/firedoc/internal/wire"
)

// ClockEpoch is the first time returned by a DeterministicClock:
// 2024-01-01T00:00:00Z.
const ClockEpoch int64 = 1704067200

// DeterministicClock provides a thread-safe clock for local write times.
//
// Each call to Now advances the clock by exactly one second from ClockEpoch,
// so the same test run twice produces identical pending server timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	ticks int64
}

// NewDeterministicClock creates a new deterministic clock.
//
// The first call to Now() returns ClockEpoch.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now returns the current tick as a timestamp and advances the clock.
func (c *DeterministicClock) Now() wire.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := wire.NewTimestamp(ClockEpoch+c.ticks, 0)
	c.ticks++
	return ts
}

// Ticks returns how many times Now has been called.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock to ClockEpoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
