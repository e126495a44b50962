// Package pool provides the bounded worker pool that runs all fan-out work:
// per-batch summarization calls and per-candidate deep-analysis tasks.
package pool

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrQueueFull is returned by TrySubmit when the pending queue is at
// capacity. Backpressure is explicit: work is rejected or the submitter
// blocks, never silently dropped.
var ErrQueueFull = errors.New("worker pool queue is full")

// ErrPoolClosed is returned when submitting to a stopped pool.
var ErrPoolClosed = errors.New("worker pool is closed")

const (
	DefaultWorkers   = 5
	DefaultQueueSize = 25
)

// Task is a unit of work. The context is the one captured at submission
// time; tasks never read ambient state.
type Task func(ctx context.Context)

type job struct {
	ctx  context.Context
	task Task
}

// Pool is a fixed-size worker pool with a bounded pending queue.
type Pool struct {
	queue chan job
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// New starts a pool with the given worker count and queue capacity.
// Non-positive values fall back to the defaults.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	p := &Pool{
		queue: make(chan job, queueSize),
		done:  make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case j := <-p.queue:
			// Always run, even with a dead context: tasks carry completion
			// callbacks (WaitGroup releases) that must fire exactly once.
			// The task observes cancellation through its own ctx.
			j.task(j.ctx)
		}
	}
}

// Submit enqueues a task, blocking while the queue is full. The given
// context bounds the wait and is passed by value to the task.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case p.queue <- job{ctx: ctx, task: task}:
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues a task or rejects it immediately with ErrQueueFull.
func (p *Pool) TrySubmit(ctx context.Context, task Task) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case p.queue <- job{ctx: ctx, task: task}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop terminates the workers after their in-flight tasks complete.
// Tasks still pending in the queue are discarded.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		log.Printf("[Pool] stopped")
	})
}
