package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"robotask/internal/model"
)

var (
	// ErrTaskNotFound is returned when an operation references a task ID
	// that was never created.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskFinished is returned when cancellation targets a task already
	// in a terminal state.
	ErrTaskFinished = errors.New("task already finished")
)

// EventHook is invoked after every event append, while the store lock is
// held so subscribers observe events in log order. Implementations must not
// block and must not call back into the store.
type EventHook func(*model.Event)

// Store is the transactional source of truth for tasks and events. Both ID
// counters and both maps are owned by a single mutex: ID assignment, event
// append, and task merge are indivisible, and concurrent writers can never
// interleave partial writes. All returned records are clones; live state is
// never handed out.
type Store struct {
	mu          sync.Mutex
	tasks       map[int64]*model.Task
	events      map[int64]*model.Event
	nextTaskID  int64
	nextEventID int64
	onEvent     EventHook
}

// New creates an empty store. Task and event IDs each start at 1.
func New() *Store {
	return &Store{
		tasks:       make(map[int64]*model.Task),
		events:      make(map[int64]*model.Event),
		nextTaskID:  1,
		nextEventID: 1,
	}
}

// SetEventHook installs the hook called on every event append. Must be set
// before the store is shared between goroutines.
func (s *Store) SetEventHook(hook EventHook) {
	s.onEvent = hook
}

// AddTask assigns the next sequential task ID, persists the task, and writes
// the initiating "new" event. Affinity is resolved by the caller (from the
// registry) before any ID is consumed, so a rejected type never leaves a gap
// in the task ID sequence.
func (s *Store) AddTask(taskType string, payload map[string]any, affinity model.Affinity) (*model.Task, error) {
	if !affinity.Valid() {
		return nil, fmt.Errorf("invalid affinity %q for task type %s", affinity, taskType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := &model.Task{
		ID:       s.nextTaskID,
		Type:     taskType,
		Created:  time.Now(),
		State:    model.TaskStateNew,
		Affinity: affinity,
	}
	if len(payload) > 0 {
		task.Payload = make(map[string]any, len(payload))
		for k, v := range payload {
			if model.ReservedTaskField(k) {
				continue
			}
			task.Payload[k] = v
		}
	}
	s.nextTaskID++
	s.tasks[task.ID] = task

	// The initiating event records everything the task was created with,
	// so replaying the log from nothing reproduces the stored state.
	changed := map[string]any{
		"state":    string(model.TaskStateNew),
		"type":     taskType,
		"affinity": string(affinity),
	}
	for k, v := range task.Payload {
		changed[k] = v
	}
	s.appendEventLocked(task, changed)

	return task.Clone(), nil
}

// UpdateTask atomically appends an event recording changes, merges changes
// into the task, and points task.Update at the new event ID. It returns the
// task as it was BEFORE this update, for callers that need the prior state.
func (s *Store) UpdateTask(id int64, changes map[string]any) (*model.Task, error) {
	if len(changes) == 0 {
		return nil, errors.New("update requires at least one field/value pair")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}

	prior := task.Clone()
	s.appendEventLocked(task, changes)
	return prior, nil
}

// BeginProcessing performs the guarded new -> processing transition used by
// workers when they dequeue a task. If the task is no longer in the new
// state (most commonly because it was cancelled while queued) no write
// happens; the caller inspects the returned prior state and skips the task.
func (s *Store) BeginProcessing(id int64) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}

	prior := task.Clone()
	if task.State != model.TaskStateNew {
		return prior, nil
	}

	s.appendEventLocked(task, map[string]any{
		"state": string(model.TaskStateProcessing),
	})
	return prior, nil
}

// FinishTask records a handler outcome, guarded on the task still being in
// processing. If the task left processing in the meantime (cancelled while
// the handler was running) no write happens and the handler outcome is
// dropped; the prior snapshot tells the caller what won.
func (s *Store) FinishTask(id int64, changes map[string]any) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}

	prior := task.Clone()
	if task.State != model.TaskStateProcessing {
		return prior, nil
	}

	s.appendEventLocked(task, changes)
	return prior, nil
}

// CancelTask transitions a task to cancelled. Cancellation only applies to
// tasks that have not finished: a terminal task is left untouched and
// ErrTaskFinished is returned.
func (s *Store) CancelTask(id int64) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	if task.State.Terminal() {
		return nil, fmt.Errorf("%w: %d is %s", ErrTaskFinished, id, task.State)
	}

	prior := task.Clone()
	s.appendEventLocked(task, map[string]any{
		"state": string(model.TaskStateCancelled),
	})
	return prior, nil
}

// GetTask returns a snapshot of the task, or false if it does not exist.
// Querying a missing task is not an error; the caller decides.
func (s *Store) GetTask(id int64) (*model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return task.Clone(), true
}

// GetTasks returns a snapshot of all tasks ordered by ID.
func (s *Store) GetTasks() []*model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]*model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task.Clone())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// GetEvent returns a snapshot of the event, or false if it does not exist.
func (s *Store) GetEvent(id int64) (*model.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, false
	}
	return event.Clone(), true
}

// GetEvents returns a snapshot of the full event log ordered by ID, which
// is the true system-wide order of all observed state transitions.
func (s *Store) GetEvents() []*model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]*model.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, event.Clone())
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

// TaskEvents returns all events for one task in ID order.
func (s *Store) TaskEvents(taskID int64) []*model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]*model.Event, 0, 4)
	for _, event := range s.events {
		if event.Task == taskID {
			events = append(events, event.Clone())
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

// TaskCounts returns the number of tasks per state.
func (s *Store) TaskCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int, 5)
	for _, task := range s.tasks {
		counts[task.State.String()]++
	}
	return counts
}

// appendEventLocked is the single write path shared by every mutation:
// assign the next event ID, append the event, merge the changes into the
// task, and point task.Update at the event. Callers hold s.mu.
func (s *Store) appendEventLocked(task *model.Task, changes map[string]any) *model.Event {
	event := &model.Event{
		ID:      s.nextEventID,
		Task:    task.ID,
		Created: time.Now(),
		Changed: make(map[string]any, len(changes)),
	}
	for k, v := range changes {
		event.Changed[k] = v
	}
	if errs, ok := changes["errors"]; ok {
		if msg, isStr := errs.(string); isStr {
			event.Errors = msg
		}
	}
	s.nextEventID++
	s.events[event.ID] = event

	applyChanges(task, changes)
	task.Update = event.ID

	if s.onEvent != nil {
		s.onEvent(event.Clone())
	}
	return event
}

// applyChanges merges a changed-field map into a task. Engine-owned fields
// are typed; everything else is opaque payload.
func applyChanges(task *model.Task, changes map[string]any) {
	for k, v := range changes {
		switch k {
		case "state":
			if state, ok := v.(string); ok {
				task.State = model.TaskState(state)
			} else if state, ok := v.(model.TaskState); ok {
				task.State = state
			}
		case "result":
			task.Result = v
		case "errors":
			if msg, ok := v.(string); ok {
				task.Errors = msg
			}
		case "type":
			if t, ok := v.(string); ok {
				task.Type = t
			}
		case "affinity":
			if a, ok := v.(string); ok {
				task.Affinity = model.Affinity(a)
			}
		case "id", "created", "update":
			// Never writable through an update.
		default:
			if task.Payload == nil {
				task.Payload = make(map[string]any)
			}
			task.Payload[k] = v
		}
	}
}
