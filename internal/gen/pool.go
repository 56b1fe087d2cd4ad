package gen

// pool.go: fixed-size worker pool draining a FIFO task queue. Generation
// work is best effort, not durable: tasks still queued when Shutdown is
// called are dropped, but every dropped job runs its discard hook so
// callers waiting on a result are released.

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const defaultQueueDepth = 64

// job pairs a task with the hook that runs instead when the pool drops
// the task at shutdown. Exactly one of the two ever runs.
type job struct {
	run     func()
	discard func() // may be nil
}

// Pool runs obstacle-generation tasks on N long-lived worker goroutines.
// It never touches a live Store: results travel back to the caller via a
// future channel or a callback, and the caller merges them under the
// manager's exclusive lock.
type Pool struct {
	workers int
	log     *zap.Logger

	tasks  chan job
	stopCh chan struct{}
	wg     sync.WaitGroup

	stopped atomic.Bool
	active  atomic.Int64
}

// NewPool starts a pool with the given worker count (minimum 1).
func NewPool(workers int, log *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{
		workers: workers,
		log:     log,
		tasks:   make(chan job, defaultQueueDepth),
		stopCh:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.workerLoop()
	}
	return p
}

// Submit enqueues a task and wakes one idle worker. Returns false when the
// pool is shut down or the queue is full; callers treat a refused task the
// same as an empty batch.
func (p *Pool) Submit(run func()) bool {
	return p.SubmitWithDiscard(run, nil)
}

// SubmitWithDiscard enqueues a task with a discard hook. If the pool drops
// the task at shutdown instead of executing it, the hook runs exactly
// once, on the worker or shutdown goroutine.
func (p *Pool) SubmitWithDiscard(run, discard func()) bool {
	if p.stopped.Load() {
		return false
	}
	select {
	case p.tasks <- job{run: run, discard: discard}:
		return true
	default:
		p.log.Warn("generation queue full, task dropped")
		return false
	}
}

// Shutdown stops the pool, joins every worker, then discards whatever is
// still queued. Idempotent.
func (p *Pool) Shutdown() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	close(p.stopCh)
	p.wg.Wait()
	p.drainQueued()
	p.log.Debug("generation pool stopped", zap.Int("workers", p.workers))
}

// drainQueued runs the discard hook of every job the workers never
// reached. Safe only after the workers have exited.
func (p *Pool) drainQueued() {
	for {
		select {
		case j := <-p.tasks:
			if j.discard != nil {
				j.discard()
			}
		default:
			return
		}
	}
}

// Running reports whether the pool accepts tasks.
func (p *Pool) Running() bool { return !p.stopped.Load() }

// ActiveWorkers returns how many workers are currently executing a task.
func (p *Pool) ActiveWorkers() int { return int(p.active.Load()) }

// WorkerCount returns the fixed pool size.
func (p *Pool) WorkerCount() int { return p.workers }

func (p *Pool) workerLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case j := <-p.tasks:
			// A job dequeued after shutdown was requested is discarded,
			// not run.
			select {
			case <-p.stopCh:
				if j.discard != nil {
					j.discard()
				}
				return
			default:
			}
			p.active.Add(1)
			j.run()
			p.active.Add(-1)
		}
	}
}
