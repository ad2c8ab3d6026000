package dispatch

import (
	"robotask/internal/model"
	"robotask/internal/store"
	"robotask/pkg/logger"
)

// Router drains the dispatch queue and forwards each task unchanged onto
// the queue matching its stored affinity. It performs no state mutation.
type Router struct {
	store    *store.Store
	dispatch *Queue[int64]
	serial   *Queue[*model.Task]
	parallel *Queue[*model.Task]
	high     *Queue[*model.Task]
	done     chan struct{}
}

// NewRouter creates a router over the dispatch queue and the three affinity
// queues.
func NewRouter(s *store.Store, dispatchQ *Queue[int64], serial, parallel, high *Queue[*model.Task]) *Router {
	return &Router{
		store:    s,
		dispatch: dispatchQ,
		serial:   serial,
		parallel: parallel,
		high:     high,
		done:     make(chan struct{}),
	}
}

// Run is the single long-lived routing loop. It exits once the dispatch
// queue is closed and drained.
func (r *Router) Run() {
	defer close(r.done)

	for {
		taskID, ok := r.dispatch.Pop()
		if !ok {
			logger.Infof("dispatch router: queue closed, exiting")
			return
		}

		task, ok := r.store.GetTask(taskID)
		if !ok {
			// Tolerate a task vanishing between enqueue and routing.
			logger.Warnf("dispatch router: task %d no longer exists, dropping", taskID)
			continue
		}

		if err := r.queueFor(task.Affinity).Push(task); err != nil {
			logger.Warnf("dispatch router: forwarding task %d failed: %v", taskID, err)
		}
	}
}

// Wait blocks until the routing loop has exited.
func (r *Router) Wait() {
	<-r.done
}

func (r *Router) queueFor(affinity model.Affinity) *Queue[*model.Task] {
	switch affinity {
	case model.AffinityParallel:
		return r.parallel
	case model.AffinityHighPriority:
		return r.high
	default:
		return r.serial
	}
}
