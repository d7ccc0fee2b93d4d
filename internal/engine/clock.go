package engine

import (
	"sync"
	"time"
)

// Clock supplies the pass timestamps. Injectable so tests and golden
// traces get deterministic times.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock starts at a known instant and advances by a fixed step on
// every reading, so successive timestamps within a pass stay distinct but
// reproducible.
type FixedClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewFixedClock creates a clock whose first reading is start.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{next: start, step: step}
}

// Now returns the next deterministic instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.next
	c.next = c.next.Add(c.step)
	return t
}
