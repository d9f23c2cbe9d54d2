package workerpool

import (
	"context"
	"fmt"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petrijr/relay/pkg/api"
)

// Option configures a Pool.
type Option func(*Pool)

// WithObserver routes pool lifecycle events to obs.
func WithObserver(obs api.Observer) Option {
	return func(p *Pool) {
		if obs != nil {
			p.observer = obs
		}
	}
}

// WithContext sets the context passed to observer callbacks and used as the
// parent of the workers' pprof label set. It is not used for cancellation.
func WithContext(ctx context.Context) Option {
	return func(p *Pool) {
		if ctx != nil {
			p.ctx = ctx
		}
	}
}

type worker struct {
	name string
	ch   chan api.Task
}

type waitResult int

const (
	gotTask waitResult = iota
	retry
	exit
)

// Pool is an elastic worker pool. It is safe for concurrent use.
type Pool struct {
	name     string
	cfg      api.PoolConfig
	observer api.Observer
	ctx      context.Context

	mu      sync.Mutex
	queue   fifo
	idle    idleStack
	workers int
	largest int
	seq     int
	closed  bool

	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
	shutOnce  sync.Once

	completed atomic.Int64
	rejected  atomic.Int64
	panicked  atomic.Int64
}

// New validates cfg and returns a pool with no workers. Call Prestart to
// bring up the core workers eagerly.
func New(name string, cfg api.PoolConfig, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pool %q: %w", name, err)
	}
	p := &Pool{
		name:     name,
		cfg:      cfg,
		observer: api.NoopObserver{},
		ctx:      context.Background(),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Config returns the sizing the pool was built with.
func (p *Pool) Config() api.PoolConfig { return p.cfg }

// Prestart starts every missing core worker and returns once all of them are
// running and parked, ready to take work. It returns the number of workers
// started.
func (p *Pool) Prestart() int {
	var started sync.WaitGroup

	p.mu.Lock()
	n := 0
	for !p.closed && p.workers < p.cfg.CorePoolSize {
		started.Add(1)
		p.spawnLocked(nil, &started)
		n++
	}
	p.mu.Unlock()

	started.Wait()
	return n
}

// Execute hands task to an idle worker, starts a new worker if the pool is
// below its maximum size, or queues it. With a bounded queue that is full
// it returns an error wrapping api.ErrOverloaded. Execute never blocks on
// task execution.
func (p *Pool) Execute(task api.Task) error {
	if task == nil {
		return api.ErrNilTask
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return p.reject(fmt.Errorf("%w: %s", api.ErrShutdown, p.name))
	}
	if w, ok := p.idle.pop(); ok {
		w.ch <- task
		p.mu.Unlock()
		return nil
	}
	if p.workers < p.cfg.MaximumPoolSize {
		p.spawnLocked(task, nil)
		p.mu.Unlock()
		return nil
	}
	if p.cfg.Queue == api.QueueBounded && p.queue.len() >= p.cfg.QueueCapacity {
		p.mu.Unlock()
		return p.reject(fmt.Errorf("%w: %s queue full (capacity %d)", api.ErrOverloaded, p.name, p.cfg.QueueCapacity))
	}
	p.queue.push(task)
	p.mu.Unlock()
	return nil
}

// QueueLen returns the number of tasks waiting for a worker.
func (p *Pool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.len()
}

// Stats returns a snapshot of the pool.
func (p *Pool) Stats() api.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return api.PoolStats{
		Name:      p.name,
		Core:      p.cfg.CorePoolSize,
		Max:       p.cfg.MaximumPoolSize,
		Workers:   p.workers,
		Idle:      len(p.idle),
		Active:    p.workers - len(p.idle),
		Queued:    p.queue.len(),
		Largest:   p.largest,
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
		Panicked:  p.panicked.Load(),
		Closed:    p.closed,
	}
}

// Shutdown stops accepting tasks and waits until every queued task has run
// and every worker has exited, or until ctx is done. Calling it again after a
// timeout resumes the wait.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		if p.workers == 0 {
			close(p.exited)
		}
		p.mu.Unlock()
		close(p.done)
	})

	select {
	case <-p.exited:
	case <-ctx.Done():
		return fmt.Errorf("pool %q shutdown: %w", p.name, ctx.Err())
	}

	p.shutOnce.Do(func() {
		p.observer.OnPoolShutdown(p.ctx, p.Stats())
	})
	return nil
}

func (p *Pool) reject(err error) error {
	p.rejected.Add(1)
	p.observer.OnTaskRejected(p.ctx, p.name, err)
	return err
}

// spawnLocked starts a worker. With a nil first task the worker is parked
// before the goroutine starts, so it can be claimed immediately.
func (p *Pool) spawnLocked(first api.Task, started *sync.WaitGroup) {
	p.seq++
	p.workers++
	if p.workers > p.largest {
		p.largest = p.workers
	}

	w := &worker{
		name: fmt.Sprintf("%s-%d-%d", p.name, p.cfg.MaximumPoolSize, p.seq),
		ch:   make(chan api.Task, 1),
	}
	parked := first == nil
	if parked {
		p.idle.push(w)
	}

	labels := pprof.Labels("pool", p.name, "worker", w.name)
	go pprof.Do(p.ctx, labels, func(context.Context) {
		p.observer.OnWorkerStart(p.ctx, p.name, w.name)
		if started != nil {
			started.Done()
		}
		defer p.observer.OnWorkerStop(p.ctx, p.name, w.name)
		p.run(w, first, parked)
	})
}

func (p *Pool) run(w *worker, task api.Task, parked bool) {
	if parked {
		var res waitResult
		task, res = p.await(w, false)
		if res == exit {
			return
		}
	}
	for {
		if task != nil {
			p.runTask(w, task)
		}
		var ok bool
		if task, ok = p.next(w); !ok {
			return
		}
	}
}

func (p *Pool) runTask(w *worker, task api.Task) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.observer.OnTaskPanic(p.ctx, p.name, w.name, r)
			return
		}
		p.completed.Add(1)
	}()
	task()
}

// next returns the next task for w, parking it when the queue is empty. It
// returns false once w has been retired.
func (p *Pool) next(w *worker) (api.Task, bool) {
	for {
		p.mu.Lock()
		if t, ok := p.queue.pop(); ok {
			p.mu.Unlock()
			return t, true
		}
		surplus := p.workers > p.cfg.CorePoolSize
		if p.closed || (surplus && p.cfg.KeepAlive == 0) {
			p.retireLocked()
			p.mu.Unlock()
			return nil, false
		}
		p.idle.push(w)
		p.mu.Unlock()

		t, res := p.await(w, surplus)
		switch res {
		case gotTask:
			return t, true
		case exit:
			return nil, false
		}
	}
}

// await blocks a parked worker. A worker that is no longer on the idle
// stack has been claimed by Execute and its task is already buffered in
// w.ch.
func (p *Pool) await(w *worker, surplus bool) (api.Task, waitResult) {
	var timeout <-chan time.Time
	if surplus {
		timer := time.NewTimer(p.cfg.KeepAlive)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case t := <-w.ch:
		return t, gotTask

	case <-timeout:
		p.mu.Lock()
		if !p.idle.remove(w) {
			p.mu.Unlock()
			return <-w.ch, gotTask
		}
		if p.workers > p.cfg.CorePoolSize {
			p.retireLocked()
			p.mu.Unlock()
			return nil, exit
		}
		p.mu.Unlock()
		return nil, retry

	case <-p.done:
		p.mu.Lock()
		if !p.idle.remove(w) {
			p.mu.Unlock()
			return <-w.ch, gotTask
		}
		p.mu.Unlock()
		return nil, retry
	}
}

func (p *Pool) retireLocked() {
	p.workers--
	if p.closed && p.workers == 0 {
		close(p.exited)
	}
}
