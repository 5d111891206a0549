package session

import "sync"

// Capture tracks pointer capture for one drag gesture. The release callback
// runs exactly once per acquired gesture, however the gesture ends.
type Capture struct {
	mu        sync.Mutex
	active    bool
	pointer   int
	onRelease func(pointer int)
}

// NewCapture creates a Capture; onRelease may be nil
func NewCapture(onRelease func(pointer int)) *Capture {
	return &Capture{onRelease: onRelease}
}

// Acquire captures pointer. It fails while another pointer holds the capture.
func (c *Capture) Acquire(pointer int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active && c.pointer != pointer {
		return false
	}
	c.active = true
	c.pointer = pointer
	return true
}

// Holds reports whether pointer currently holds the capture
func (c *Capture) Holds(pointer int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.pointer == pointer
}

// Active returns the capturing pointer, if any
func (c *Capture) Active() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pointer, c.active
}

// Release ends the capture held by pointer. Only the first call for a
// gesture releases; later calls return false.
func (c *Capture) Release(pointer int) bool {
	c.mu.Lock()
	if !c.active || c.pointer != pointer {
		c.mu.Unlock()
		return false
	}
	c.active = false
	cb := c.onRelease
	c.mu.Unlock()
	if cb != nil {
		cb(pointer)
	}
	return true
}

// ReleaseAny ends whatever capture is active
func (c *Capture) ReleaseAny() bool {
	c.mu.Lock()
	pointer, active := c.pointer, c.active
	c.mu.Unlock()
	if !active {
		return false
	}
	return c.Release(pointer)
}
