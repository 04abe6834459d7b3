package worker

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Job is one unit of work. It runs on a worker goroutine.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a bounded input queue (strict back-pressure).
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan Job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// New creates a worker pool. Size defaults to 1 when size<=0; queue defaults to 1 slot.
func New(size, queue int) *Pool {
	if size <= 0 {
		size = 1
	}
	if queue <= 0 {
		queue = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{ctx: ctx, cancel: cancel, jobs: make(chan Job, queue)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(id, j)
			}
		}(i)
	}
}

func (p *Pool) run(id int, j Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker job panicked", "worker", id, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	j(p.ctx)
}

// Submit enqueues a job if the queue has room. Returns false if dropped.
func (p *Pool) Submit(j Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- j:
		return true
	default:
		return false
	}
}

// Close stops accepting jobs, cancels the jobs' context and waits for the
// workers to drain. Safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
}
