package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Observer receives callbacks from pools and executors for logging and metrics.
//
// Callbacks run on the goroutine that triggered them, often a pool worker.
// Implementations should be fast and non-blocking.
type Observer interface {
	// OnPoolCreated is called once per pool after it has been pre-warmed.
	OnPoolCreated(ctx context.Context, info PoolInfo)

	// OnWorkerStart is called when a worker goroutine enters its loop.
	OnWorkerStart(ctx context.Context, pool, worker string)

	// OnWorkerStop is called when a worker goroutine exits, either because
	// it idled past its keep-alive or because the pool shut down.
	OnWorkerStop(ctx context.Context, pool, worker string)

	// OnTaskRejected is called when Submit refuses a task.
	OnTaskRejected(ctx context.Context, pool string, err error)

	// OnTaskPanic is called when a task panics. The worker survives.
	OnTaskPanic(ctx context.Context, pool, worker string, recovered any)

	// OnPoolShutdown is called once a pool has drained and all of its
	// workers have exited.
	OnPoolShutdown(ctx context.Context, stats PoolStats)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnPoolCreated(ctx context.Context, info PoolInfo)                   {}
func (NoopObserver) OnWorkerStart(ctx context.Context, pool, worker string)             {}
func (NoopObserver) OnWorkerStop(ctx context.Context, pool, worker string)              {}
func (NoopObserver) OnTaskRejected(ctx context.Context, pool string, err error)         {}
func (NoopObserver) OnTaskPanic(ctx context.Context, pool, worker string, recovered any) {}
func (NoopObserver) OnPoolShutdown(ctx context.Context, stats PoolStats)                {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnPoolCreated(ctx context.Context, info PoolInfo) {
	for _, o := range c.observers {
		o.OnPoolCreated(ctx, info)
	}
}

func (c *CompositeObserver) OnWorkerStart(ctx context.Context, pool, worker string) {
	for _, o := range c.observers {
		o.OnWorkerStart(ctx, pool, worker)
	}
}

func (c *CompositeObserver) OnWorkerStop(ctx context.Context, pool, worker string) {
	for _, o := range c.observers {
		o.OnWorkerStop(ctx, pool, worker)
	}
}

func (c *CompositeObserver) OnTaskRejected(ctx context.Context, pool string, err error) {
	for _, o := range c.observers {
		o.OnTaskRejected(ctx, pool, err)
	}
}

func (c *CompositeObserver) OnTaskPanic(ctx context.Context, pool, worker string, recovered any) {
	for _, o := range c.observers {
		o.OnTaskPanic(ctx, pool, worker, recovered)
	}
}

func (c *CompositeObserver) OnPoolShutdown(ctx context.Context, stats PoolStats) {
	for _, o := range c.observers {
		o.OnPoolShutdown(ctx, stats)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs pool and worker
// lifecycle events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnPoolCreated(ctx context.Context, info PoolInfo) {
	o.Logger.DebugContext(ctx, "pool_created",
		slog.String("pool", info.Name),
		slog.Int("unit_id", info.UnitID),
		slog.Int("core_pool_size", info.Core),
		slog.Int("maximum_pool_size", info.Max),
		slog.Duration("keep_alive", info.KeepAlive),
		slog.String("queue", info.Queue.String()),
		slog.Int("queue_capacity", info.Capacity),
	)
}

func (o *LoggingObserver) OnWorkerStart(ctx context.Context, pool, worker string) {
	o.Logger.DebugContext(ctx, "worker_start",
		slog.String("pool", pool),
		slog.String("worker", worker),
	)
}

func (o *LoggingObserver) OnWorkerStop(ctx context.Context, pool, worker string) {
	o.Logger.DebugContext(ctx, "worker_stop",
		slog.String("pool", pool),
		slog.String("worker", worker),
	)
}

func (o *LoggingObserver) OnTaskRejected(ctx context.Context, pool string, err error) {
	o.Logger.WarnContext(ctx, "task_rejected",
		slog.String("pool", pool),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnTaskPanic(ctx context.Context, pool, worker string, recovered any) {
	o.Logger.ErrorContext(ctx, "task_panic",
		slog.String("pool", pool),
		slog.String("worker", worker),
		slog.String("panic", fmt.Sprint(recovered)),
	)
}

func (o *LoggingObserver) OnPoolShutdown(ctx context.Context, stats PoolStats) {
	o.Logger.InfoContext(ctx, "pool_shutdown",
		slog.String("pool", stats.Name),
		slog.Int64("completed", stats.Completed),
		slog.Int64("rejected", stats.Rejected),
		slog.Int64("panicked", stats.Panicked),
		slog.Int("largest", stats.Largest),
	)
}

// BasicMetrics collects simple counters across all pools it observes.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	poolsCreated   atomic.Int64
	workersStarted atomic.Int64
	workersStopped atomic.Int64
	tasksRejected  atomic.Int64
	tasksPanicked  atomic.Int64
	poolsShutdown  atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	PoolsCreated   int64
	PoolsShutdown  int64
	WorkersStarted int64
	WorkersStopped int64
	LiveWorkers    int64
	TasksRejected  int64
	TasksPanicked  int64
}

func (m *BasicMetrics) OnPoolCreated(ctx context.Context, info PoolInfo) {
	m.poolsCreated.Add(1)
}

func (m *BasicMetrics) OnWorkerStart(ctx context.Context, pool, worker string) {
	m.workersStarted.Add(1)
}

func (m *BasicMetrics) OnWorkerStop(ctx context.Context, pool, worker string) {
	m.workersStopped.Add(1)
}

func (m *BasicMetrics) OnTaskRejected(ctx context.Context, pool string, err error) {
	m.tasksRejected.Add(1)
}

func (m *BasicMetrics) OnTaskPanic(ctx context.Context, pool, worker string, recovered any) {
	m.tasksPanicked.Add(1)
}

func (m *BasicMetrics) OnPoolShutdown(ctx context.Context, stats PoolStats) {
	m.poolsShutdown.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.workersStarted.Load()
	stopped := m.workersStopped.Load()

	return BasicMetricsSnapshot{
		PoolsCreated:   m.poolsCreated.Load(),
		PoolsShutdown:  m.poolsShutdown.Load(),
		WorkersStarted: started,
		WorkersStopped: stopped,
		LiveWorkers:    started - stopped,
		TasksRejected:  m.tasksRejected.Load(),
		TasksPanicked:  m.tasksPanicked.Load(),
	}
}
