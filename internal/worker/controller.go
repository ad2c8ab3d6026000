package worker

import (
	"context"
	"sync"
)

// Controller is the global running/paused switch consulted by pausable
// worker pools. Pausing only gates the start of new handler invocations;
// it never interrupts a handler already running.
//
// Waiting is a blocking gate, not a poll: the gate channel is closed while
// execution is running and replaced with an open channel while paused, so
// waiters park on a channel receive until Resume.
type Controller struct {
	mu     sync.Mutex
	paused bool
	gate   chan struct{} // closed while running
}

// NewController creates a controller in the running state.
func NewController() *Controller {
	gate := make(chan struct{})
	close(gate)
	return &Controller{gate: gate}
}

// Pause stops pausable pools from starting new handler invocations.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.paused = true
	c.gate = make(chan struct{})
}

// Resume releases all waiting workers.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	close(c.gate)
}

// Running reports whether execution is currently allowed.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.paused
}

// Wait blocks until the controller reports running, or ctx is cancelled.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.paused {
			c.mu.Unlock()
			return nil
		}
		gate := c.gate
		c.mu.Unlock()

		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
