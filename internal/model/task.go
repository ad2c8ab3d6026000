package model

import (
	"encoding/json"
	"time"
)

// TaskState task lifecycle state
type TaskState string

const (
	TaskStateNew        TaskState = "new"        // Created, waiting for dispatch
	TaskStateProcessing TaskState = "processing" // Claimed by a worker
	TaskStateComplete   TaskState = "complete"   // Handler succeeded
	TaskStateFailed     TaskState = "failed"     // Handler failed or no handler
	TaskStateCancelled  TaskState = "cancelled"  // Cancelled before completion
)

func (s TaskState) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are allowed from s.
func (s TaskState) Terminal() bool {
	return s == TaskStateComplete || s == TaskStateFailed || s == TaskStateCancelled
}

// Affinity declares which worker pool a task type runs on.
type Affinity string

const (
	AffinitySerial       Affinity = "serial"        // Mutually exclusive, one worker system-wide
	AffinityParallel     Affinity = "parallel"      // Concurrent pool
	AffinityHighPriority Affinity = "high-priority" // Dedicated worker, exempt from pause
)

// Valid reports whether a is a known affinity class.
func (a Affinity) Valid() bool {
	switch a {
	case AffinitySerial, AffinityParallel, AffinityHighPriority:
		return true
	}
	return false
}

// Task task model. Payload carries the type-specific fields (e.g. waypoints)
// which the engine treats as opaque; on the wire they are flattened into the
// top-level JSON object.
type Task struct {
	ID       int64          `json:"id"`
	Type     string         `json:"type"`
	Created  time.Time      `json:"created"`
	Update   int64          `json:"update"` // ID of the last event that mutated this task
	State    TaskState      `json:"state"`
	Affinity Affinity       `json:"affinity"`
	Result   any            `json:"result,omitempty"`
	Errors   string         `json:"errors,omitempty"`
	Payload  map[string]any `json:"-"`
}

// reservedTaskFields are the task fields owned by the engine; payload keys
// never shadow them.
var reservedTaskFields = map[string]struct{}{
	"id":       {},
	"type":     {},
	"created":  {},
	"update":   {},
	"state":    {},
	"affinity": {},
	"result":   {},
	"errors":   {},
}

// ReservedTaskField reports whether name is an engine-owned task field.
func ReservedTaskField(name string) bool {
	_, ok := reservedTaskFields[name]
	return ok
}

// Clone returns a copy safe to hand outside the store's lock. Payload and
// the map are copied; Result values are treated as immutable handler output.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Payload != nil {
		clone.Payload = make(map[string]any, len(t.Payload))
		for k, v := range t.Payload {
			clone.Payload[k] = v
		}
	}
	return &clone
}

// taskAlias avoids MarshalJSON recursion.
type taskAlias Task

// MarshalJSON flattens Payload into the top-level object:
// {id, type, created, update, state, affinity, result?, errors?, ...payload}.
func (t Task) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(taskAlias(t))
	if err != nil {
		return nil, err
	}
	if len(t.Payload) == 0 {
		return base, nil
	}

	var flat map[string]any
	if err := json.Unmarshal(base, &flat); err != nil {
		return nil, err
	}
	for k, v := range t.Payload {
		if ReservedTaskField(k) {
			continue
		}
		flat[k] = v
	}
	return json.Marshal(flat)
}

// UnmarshalJSON is the inverse of MarshalJSON: engine-owned fields populate
// the struct, everything else lands in Payload.
func (t *Task) UnmarshalJSON(data []byte) error {
	var alias taskAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Task(alias)
	for k, v := range raw {
		if ReservedTaskField(k) {
			continue
		}
		if t.Payload == nil {
			t.Payload = make(map[string]any)
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		t.Payload[k] = val
	}
	return nil
}
