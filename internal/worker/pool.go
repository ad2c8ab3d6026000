package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"robotask/internal/dispatch"
	"robotask/internal/model"
	"robotask/internal/registry"
	"robotask/internal/store"
	"robotask/pkg/logger"
)

// Pool drains one affinity queue with a fixed number of workers. The serial
// pool runs exactly one worker, which is what enforces mutual exclusion for
// exclusive robot operations; the high-priority pool runs one worker and
// ignores the pause controller.
type Pool struct {
	name       string
	queue      *dispatch.Queue[*model.Task]
	workers    int
	pausable   bool
	store      *store.Store
	registry   *registry.Registry
	controller *Controller
	wg         sync.WaitGroup
}

// NewPool creates a pool of workers over queue.
func NewPool(name string, queue *dispatch.Queue[*model.Task], workers int, pausable bool,
	s *store.Store, reg *registry.Registry, ctrl *Controller) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		name:       name,
		queue:      queue,
		workers:    workers,
		pausable:   pausable,
		store:      s,
		registry:   reg,
		controller: ctrl,
	}
}

// Start launches the worker loops.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	logger.Infof("worker pool %s started (%d workers, pausable=%v)", p.name, p.workers, p.pausable)
}

// Wait blocks until every worker loop has exited. Loops exit once their
// queue is closed and drained; an in-flight handler is never pre-empted.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		task, ok := p.queue.Pop()
		if !ok {
			logger.Debugf("worker %s/%d: queue closed, exiting", p.name, id)
			return
		}
		p.process(ctx, task)
	}
}

func (p *Pool) process(ctx context.Context, task *model.Task) {
	// Claim the task. If it left the new state while queued (cancelled),
	// skip it without touching it.
	prior, err := p.store.BeginProcessing(task.ID)
	if err != nil {
		logger.Warnf("worker %s: task %d vanished before processing: %v", p.name, task.ID, err)
		return
	}
	if prior.State != model.TaskStateNew {
		logger.Infof("worker %s: skipping task %d, already %s", p.name, task.ID, prior.State)
		return
	}

	// The task is visibly processing while we hold here; pausing gates the
	// handler invocation, not the claim. A cancelled wait (shutdown) still
	// runs the handler so the claimed task is not stranded.
	if p.pausable {
		if err := p.controller.Wait(ctx); err != nil {
			logger.Warnf("worker %s: pause wait aborted for task %d: %v", p.name, task.ID, err)
		}
	}

	handler, _, ok := p.registry.Lookup(task.Type)
	if !ok {
		// Registration raced with dispatch; fail the task, not the engine.
		p.finish(task.ID, nil, fmt.Errorf("no handler registered for task type %q", task.Type))
		return
	}

	result, err := p.invoke(ctx, handler, task)
	p.finish(task.ID, result, err)
}

// invoke runs the handler with panic recovery so a malfunctioning handler
// cannot take down the dispatch system.
func (p *Pool) invoke(ctx context.Context, handler registry.Handler, task *model.Task) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("worker %s: handler panic on task %d: %v\n%s", p.name, task.ID, rec, debug.Stack())
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, task)
}

// finish performs the single terminal transition for this invocation.
func (p *Pool) finish(taskID int64, result any, err error) {
	var changes map[string]any
	if err != nil {
		changes = map[string]any{
			"state":  string(model.TaskStateFailed),
			"errors": err.Error(),
		}
	} else {
		changes = map[string]any{
			"state":  string(model.TaskStateComplete),
			"result": result,
		}
	}

	prior, uerr := p.store.FinishTask(taskID, changes)
	if uerr != nil {
		logger.Errorf("worker %s: recording outcome for task %d failed: %v", p.name, taskID, uerr)
		return
	}
	if prior.State != model.TaskStateProcessing {
		logger.Infof("worker %s: task %d became %s mid-flight, outcome dropped", p.name, taskID, prior.State)
	}
}
