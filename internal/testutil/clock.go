// AngelaMos | 2026
// clock.go

package testutil

import (
	"sync"
	"time"
)

// Epoch is the default starting time for Clock.
var Epoch = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

// Clock is a core.Clock that only moves when told to.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: Epoch}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d).Truncate(time.Millisecond)
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC().Truncate(time.Millisecond)
}
