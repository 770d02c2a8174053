package generic

import (
	"sync"
	"time"
)

// Clock supplies "today". Calculations never read the wall clock directly so
// that the same inputs always produce the same output.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in the given location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() Date {
	now := time.Now()
	if c.Location != nil {
		now = now.In(c.Location)
	}
	return DateOf(now)
}

// FixedClock always reports the same day. Set moves it.
type FixedClock struct {
	mu    sync.RWMutex
	today Date
}

func NewFixedClock(today Date) *FixedClock {
	return &FixedClock{today: today}
}

func (c *FixedClock) Today() Date {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.today
}

func (c *FixedClock) Set(today Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = today
}
