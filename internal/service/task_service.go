package service

import (
	"context"
	"fmt"
	"sort"

	"robotask/internal/model"
	"robotask/internal/registry"
	"robotask/internal/store"
	"robotask/internal/worker"
	"robotask/pkg/logger"
)

// TaskService is the facade the HTTP layer talks to. It owns the ordering
// between type validation, store writes, and dispatch: affinity is resolved
// from the registry before any task ID is assigned, so a rejected type
// never consumes an ID.
type TaskService struct {
	store    *store.Store
	registry *registry.Registry
	engine   *worker.Engine
}

// NewTaskService creates the task service.
func NewTaskService(s *store.Store, reg *registry.Registry, eng *worker.Engine) *TaskService {
	return &TaskService{
		store:    s,
		registry: reg,
		engine:   eng,
	}
}

// SubmitTask validates the task type, persists the task with its initiating
// event, and enqueues the ID for dispatch. An unregistered type is a hard
// failure surfaced to the caller; no task is created.
func (s *TaskService) SubmitTask(ctx context.Context, taskType string, payload map[string]any) (*model.Task, error) {
	affinity, err := s.registry.Affinity(taskType)
	if err != nil {
		return nil, err
	}

	task, err := s.store.AddTask(taskType, payload, affinity)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Enqueue(task.ID); err != nil {
		// The task exists but will never be routed; record that as a
		// failure instead of leaving it stuck in new forever.
		if _, uerr := s.store.UpdateTask(task.ID, map[string]any{
			"state":  string(model.TaskStateFailed),
			"errors": fmt.Sprintf("dispatch enqueue failed: %v", err),
		}); uerr != nil {
			logger.ErrorCtx(ctx, "failed to mark task %d undispatchable: %v", task.ID, uerr)
		}
		return nil, fmt.Errorf("dispatch queue unavailable: %w", err)
	}

	logger.InfoCtx(ctx, "task %d submitted, type=%s affinity=%s", task.ID, taskType, affinity)
	return task, nil
}

// GetTask returns a snapshot of one task.
func (s *TaskService) GetTask(id int64) (*model.Task, bool) {
	return s.store.GetTask(id)
}

// ListTasks returns tasks, optionally filtered by state and sorted by
// creation time. Filtering and sorting live here, outside the store core.
func (s *TaskService) ListTasks(state string, sortByCreated bool) []*model.Task {
	tasks := s.store.GetTasks()

	if state != "" {
		filtered := tasks[:0]
		for _, task := range tasks {
			if task.State.String() == state {
				filtered = append(filtered, task)
			}
		}
		tasks = filtered
	}

	if sortByCreated {
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Created.Before(tasks[j].Created)
		})
	}
	return tasks
}

// CancelTask cancels a task that has not finished. Cancelling a terminal
// task returns store.ErrTaskFinished.
func (s *TaskService) CancelTask(ctx context.Context, id int64) error {
	prior, err := s.store.CancelTask(id)
	if err != nil {
		return err
	}
	logger.InfoCtx(ctx, "task %d cancelled (was %s)", id, prior.State)
	return nil
}

// GetEvent returns a snapshot of one event.
func (s *TaskService) GetEvent(id int64) (*model.Event, bool) {
	return s.store.GetEvent(id)
}

// ListEvents returns the full event log in ID order.
func (s *TaskService) ListEvents() []*model.Event {
	return s.store.GetEvents()
}

// TaskEvents returns all events for one task in ID order.
func (s *TaskService) TaskEvents(taskID int64) []*model.Event {
	return s.store.TaskEvents(taskID)
}

// Pause stops pausable pools from starting new handler invocations.
func (s *TaskService) Pause(ctx context.Context) {
	s.engine.Controller().Pause()
	logger.InfoCtx(ctx, "task execution paused")
}

// Resume re-enables pausable pools.
func (s *TaskService) Resume(ctx context.Context) {
	s.engine.Controller().Resume()
	logger.InfoCtx(ctx, "task execution resumed")
}

// Status reports execution state, per-state task counts, and queue depths.
func (s *TaskService) Status() *model.StatusResponse {
	execution := "running"
	if !s.engine.Controller().Running() {
		execution = "paused"
	}
	return &model.StatusResponse{
		Execution:  execution,
		TaskCounts: s.store.TaskCounts(),
		Queues:     s.engine.QueueLengths(),
	}
}
