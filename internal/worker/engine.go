package worker

import (
	"context"
	"sync"

	"robotask/internal/dispatch"
	"robotask/internal/model"
	"robotask/internal/registry"
	"robotask/internal/store"
	"robotask/pkg/config"
	"robotask/pkg/logger"
)

// Engine wires the dispatch queue, router, and the three worker pools
// around one store and registry. It is created once per process; Start is
// idempotent behind a started flag.
type Engine struct {
	store      *store.Store
	registry   *registry.Registry
	controller *Controller

	dispatchQ *dispatch.Queue[int64]
	serialQ   *dispatch.Queue[*model.Task]
	parallelQ *dispatch.Queue[*model.Task]
	highQ     *dispatch.Queue[*model.Task]

	router *dispatch.Router
	pools  []*Pool

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewEngine builds an engine from configuration. Queue capacities and the
// parallel pool size come from cfg; the serial and high-priority pools are
// always a single worker.
func NewEngine(parent context.Context, cfg config.EngineConfig, s *store.Store, reg *registry.Registry) *Engine {
	ctx, cancel := context.WithCancel(parent)

	e := &Engine{
		store:      s,
		registry:   reg,
		controller: NewController(),
		dispatchQ:  dispatch.NewQueue[int64](cfg.DispatchBuffer),
		serialQ:    dispatch.NewQueue[*model.Task](cfg.SerialBuffer),
		parallelQ:  dispatch.NewQueue[*model.Task](cfg.ParallelBuffer),
		highQ:      dispatch.NewQueue[*model.Task](cfg.HighPriorityBuffer),
		ctx:        ctx,
		cancel:     cancel,
	}

	e.router = dispatch.NewRouter(s, e.dispatchQ, e.serialQ, e.parallelQ, e.highQ)
	e.pools = []*Pool{
		NewPool("serial", e.serialQ, 1, true, s, reg, e.controller),
		NewPool("parallel", e.parallelQ, cfg.ParallelWorkers, true, s, reg, e.controller),
		NewPool("high-priority", e.highQ, 1, false, s, reg, e.controller),
	}

	return e
}

// Controller returns the execution controller.
func (e *Engine) Controller() *Controller {
	return e.controller
}

// Start launches the router loop and the worker pools. Calling Start more
// than once is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		logger.Warnf("engine: Start called twice, ignoring")
		return
	}
	e.started = true

	go e.router.Run()
	for _, pool := range e.pools {
		pool.Start(e.ctx)
	}
	logger.Infof("engine started")
}

// Enqueue hands a newly created task ID to the dispatch queue. It does not
// block: a full dispatch queue is reported to the caller.
func (e *Engine) Enqueue(taskID int64) error {
	return e.dispatchQ.TryPush(taskID)
}

// Stop drains the engine: a paused controller is released first so parked
// workers keep consuming (a full affinity queue would otherwise block the
// router forever and the drain would never finish), then the dispatch queue
// is closed so the router exits after forwarding everything it has, then the
// affinity queues are closed and every worker drains its queue and exits.
// In-flight handlers run to completion.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	logger.Infof("engine stopping: draining queues")

	e.controller.Resume()

	e.dispatchQ.Close()
	e.router.Wait()

	e.serialQ.Close()
	e.parallelQ.Close()
	e.highQ.Close()

	for _, pool := range e.pools {
		pool.Wait()
	}

	e.cancel()
	logger.Infof("engine stopped")
}

// QueueLengths reports the current depth of each queue.
func (e *Engine) QueueLengths() map[string]int {
	return map[string]int{
		"dispatch":      e.dispatchQ.Len(),
		"serial":        e.serialQ.Len(),
		"parallel":      e.parallelQ.Len(),
		"high-priority": e.highQ.Len(),
	}
}
