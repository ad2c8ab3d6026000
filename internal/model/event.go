package model

import "time"

// Event is an immutable record of one task state transition. Events form an
// append-only log; replaying a task's events in ID order reproduces its
// current state.
type Event struct {
	ID      int64          `json:"id"`
	Task    int64          `json:"task"` // Task ID this event describes
	Created time.Time      `json:"created"`
	Changed map[string]any `json:"changed"` // field -> new value written by this event
	Errors  string         `json:"errors,omitempty"`
}

// Clone returns a copy safe to hand outside the store's lock.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Changed != nil {
		clone.Changed = make(map[string]any, len(e.Changed))
		for k, v := range e.Changed {
			clone.Changed[k] = v
		}
	}
	return &clone
}
