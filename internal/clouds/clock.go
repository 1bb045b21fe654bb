package clouds

import (
	"sync"
	"time"
)

// Clock tracks simulation time. A paused clock keeps its elapsed time but
// reports Simulating() == false, which freezes cloud movement.
type Clock struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	elapsed time.Duration
	running bool
}

// NewClock returns a paused clock at zero.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewManualClock returns a running clock that only moves through Advance,
// for fixed-step rendering.
func NewManualClock() *Clock {
	epoch := time.Time{}
	c := &Clock{now: func() time.Time { return epoch }}
	c.Resume()
	return c
}

func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		c.started = c.now()
		c.running = true
	}
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.elapsed += c.now().Sub(c.started)
		c.running = false
	}
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.elapsed += d
	c.mu.Unlock()
}

// Seconds returns the elapsed simulation time.
func (c *Clock) Seconds() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.elapsed
	if c.running {
		e += c.now().Sub(c.started)
	}
	return e.Seconds()
}

func (c *Clock) Simulating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Apply stamps the clock state into p.
func (c *Clock) Apply(p *Params) {
	p.Time = c.Seconds()
	p.Simulating = c.Simulating()
}
