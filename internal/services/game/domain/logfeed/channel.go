package logfeed

import "sync"

// Channel adapts a subscription to a buffered channel, for consumers that
// forward entries over a network connection. A consumer that falls a full
// buffer behind is cut off: the subscription ends and C is closed, so a
// slow reader never stalls the publisher.
type Channel struct {
	C <-chan Entry

	ch          chan Entry
	mu          sync.Mutex
	closed      bool
	overflowed  bool
	unsubscribe func()
}

// NewChannel subscribes through subscribe with a buffer of size entries.
func NewChannel(subscribe func(Listener) func(), size int) *Channel {
	if size <= 0 {
		size = DefaultCapacity
	}
	ch := make(chan Entry, size)
	c := &Channel{C: ch, ch: ch}
	unsubscribe := subscribe(c.push)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	cutOff := c.closed
	c.mu.Unlock()
	if cutOff {
		unsubscribe()
	}
	return c
}

func (c *Channel) push(entry Entry) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.ch <- entry:
		c.mu.Unlock()
		return
	default:
	}
	c.overflowed = true
	c.closed = true
	close(c.ch)
	unsubscribe := c.unsubscribe
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Overflowed reports whether the channel was closed because it fell behind.
func (c *Channel) Overflowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overflowed
}

// Close ends the subscription and closes C. It is safe to call twice.
func (c *Channel) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}
