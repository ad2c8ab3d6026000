package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"robotask/internal/model"
)

// ErrUnknownTaskType is returned when a task type has no registered handler.
var ErrUnknownTaskType = errors.New("unrecognized task type")

// Handler executes one task and returns its result. A handler failure is
// caught at the worker boundary and recorded as a failed transition; it
// never crashes the worker.
type Handler func(ctx context.Context, task *model.Task) (any, error)

type entry struct {
	handler  Handler
	affinity model.Affinity
}

// Registry maps task types to their handler and declared affinity.
// Registration is last-write-wins; reads and writes are safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register records the handler and affinity for taskType. Re-registration
// silently overwrites the previous entry. An unknown affinity falls back
// to serial, the safe default for robot operations.
func (r *Registry) Register(taskType string, h Handler, affinity model.Affinity) {
	if !affinity.Valid() {
		affinity = model.AffinitySerial
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[taskType] = entry{handler: h, affinity: affinity}
}

// Lookup returns the handler and affinity for taskType.
func (r *Registry) Lookup(taskType string) (Handler, model.Affinity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[taskType]
	return e.handler, e.affinity, ok
}

// Affinity resolves the declared affinity for taskType, failing with
// ErrUnknownTaskType if it was never registered.
func (r *Registry) Affinity(taskType string) (model.Affinity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[taskType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}
	return e.affinity, nil
}

// Types returns all registered task types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}
	return types
}
