package entity

import "sync/atomic"

// VersionSource hands out history versions.
type VersionSource interface {
	Next() int64
}

// Clock is a monotonic version counter shared by editing sessions.
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next version.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last version handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
