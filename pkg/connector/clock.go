package connector

import (
	"sync"
	"time"
)

// idClock hands out strictly increasing millisecond timestamps, so ids
// derived from it never repeat even when two are made in the same
// millisecond.
type idClock struct {
	lock sync.Mutex
	now  func() time.Time
	last int64
}

func newIDClock(now func() time.Time) *idClock {
	if now == nil {
		now = time.Now
	}
	return &idClock{now: now}
}

func (c *idClock) next() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	millis := c.now().UnixMilli()
	if millis <= c.last {
		millis = c.last + 1
	}
	c.last = millis
	return time.UnixMilli(millis)
}
