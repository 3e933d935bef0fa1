package entity

import (
	"sync"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/value"
)

// Update announces a successful field assignment.
type Update struct {
	EntityID int64
	Type     catalog.TypeID
	Field    *catalog.Descriptor
	Value    value.Value
}

// Listener receives updates. It runs synchronously on the publishing
// goroutine and must not block.
type Listener func(Update)

// Channel fans updates out to subscribers in subscription order.
//
// Subscribe and Publish are safe for concurrent use so that one channel can
// serve entities edited in different sessions.
type Channel struct {
	mu        sync.Mutex
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

// NewChannel creates a channel with no subscribers.
func NewChannel() *Channel {
	return &Channel{}
}

// Subscribe registers fn and returns a function that removes it.
func (c *Channel) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, subscription{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.listeners {
			if s.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers u to every subscriber.
func (c *Channel) Publish(u Update) {
	c.mu.Lock()
	snapshot := make([]subscription, len(c.listeners))
	copy(snapshot, c.listeners)
	c.mu.Unlock()

	for _, s := range snapshot {
		s.fn(u)
	}
}

// Subscribers returns the number of registered listeners.
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}
