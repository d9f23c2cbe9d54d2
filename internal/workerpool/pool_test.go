package workerpool

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/relay/pkg/api"
)

// recordingObserver captures the events the pool emits.
type recordingObserver struct {
	api.NoopObserver

	mu       sync.Mutex
	started  []string
	stopped  []string
	rejected []error
	panics   []any
	shutdown []api.PoolStats
}

func (o *recordingObserver) OnWorkerStart(ctx context.Context, pool, worker string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, worker)
}

func (o *recordingObserver) OnWorkerStop(ctx context.Context, pool, worker string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = append(o.stopped, worker)
}

func (o *recordingObserver) OnTaskRejected(ctx context.Context, pool string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected = append(o.rejected, err)
}

func (o *recordingObserver) OnTaskPanic(ctx context.Context, pool, worker string, recovered any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.panics = append(o.panics, recovered)
}

func (o *recordingObserver) OnPoolShutdown(ctx context.Context, stats api.PoolStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shutdown = append(o.shutdown, stats)
}

func (o *recordingObserver) startedWorkers() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := append([]string(nil), o.started...)
	sort.Strings(out)
	return out
}

func (o *recordingObserver) counts() (started, stopped, panics int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.started), len(o.stopped), len(o.panics)
}

func newTestPool(t *testing.T, name string, cfg api.PoolConfig, obs api.Observer) *Pool {
	t.Helper()

	p, err := New(name, cfg, WithObserver(obs))
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})
	return p
}

// gate blocks tasks until released.
type gate struct {
	ch      chan struct{}
	once    sync.Once
	running atomic.Int64
	peak    atomic.Int64
}

func newGate() *gate { return &gate{ch: make(chan struct{})} }

func (g *gate) task() api.Task {
	return func() {
		n := g.running.Add(1)
		for {
			old := g.peak.Load()
			if n <= old || g.peak.CompareAndSwap(old, n) {
				break
			}
		}
		<-g.ch
		g.running.Add(-1)
	}
}

func (g *gate) release() { g.once.Do(func() { close(g.ch) }) }

func TestNew_RejectsMaxBelowCore(t *testing.T) {
	p, err := New("bad", api.ElasticPool(4, 2))
	require.Error(t, err)
	require.ErrorIs(t, err, api.ErrInvalidConfig)
	require.Nil(t, p)
}

func TestPrestart_StartsExactlyCoreWorkers(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestPool(t, "warm", api.ElasticPool(3, 6), obs)

	require.Equal(t, 0, p.Stats().Workers, "no workers before prestart")

	n := p.Prestart()
	require.Equal(t, 3, n)

	stats := p.Stats()
	require.Equal(t, 3, stats.Workers)
	require.Equal(t, 3, stats.Idle)
	require.Equal(t, 0, stats.Active)
	require.Equal(t, 0, stats.Queued)
	require.Equal(t, []string{"warm-6-1", "warm-6-2", "warm-6-3"}, obs.startedWorkers())

	// A second call has nothing left to start.
	require.Equal(t, 0, p.Prestart())
	require.Equal(t, 3, p.Stats().Workers)
}

func TestQueueLen_CountsTasksBehindBlockedWorkers(t *testing.T) {
	p := newTestPool(t, "depth", api.FixedPool(2), nil)
	p.Prestart()
	require.Equal(t, 0, p.QueueLen())

	g := newGate()
	defer g.release()

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Execute(g.task()))
	}

	require.Equal(t, 3, p.QueueLen())
	require.Eventually(t, func() bool { return g.running.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 3, p.QueueLen())
}

func TestExecute_GrowsToMaximumAndNoFurther(t *testing.T) {
	p := newTestPool(t, "elastic", api.ElasticPool(4, 8), nil)
	p.Prestart()

	g := newGate()

	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		task := g.task()
		require.NoError(t, p.Execute(func() {
			defer wg.Done()
			task()
		}))
	}

	stats := p.Stats()
	require.Equal(t, 8, stats.Workers)
	require.Equal(t, 12, stats.Queued)

	require.Eventually(t, func() bool { return g.running.Load() == 8 }, time.Second, 5*time.Millisecond)

	g.release()
	wg.Wait()

	require.LessOrEqual(t, g.peak.Load(), int64(8))
	require.Equal(t, 8, p.Stats().Largest)
	require.Eventually(t, func() bool { return p.Stats().Completed == 20 }, time.Second, 5*time.Millisecond)
}

func TestExecute_SingleWorkerRunsInSubmissionOrder(t *testing.T) {
	p := newTestPool(t, "fifo", api.FixedPool(1), nil)
	p.Prestart()

	var (
		mu    sync.Mutex
		order []string
		wg    sync.WaitGroup
	)
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	wg.Add(2)
	require.NoError(t, p.Execute(func() {
		defer wg.Done()
		record("A start")
		time.Sleep(10 * time.Millisecond)
		record("A end")
	}))
	require.NoError(t, p.Execute(func() {
		defer wg.Done()
		record("B start")
	}))
	wg.Wait()

	require.Equal(t, []string{"A start", "A end", "B start"}, order)
}

func TestSurplusWorkers_ExitAfterKeepAlive(t *testing.T) {
	cfg := api.ElasticPool(1, 3)
	cfg.KeepAlive = 20 * time.Millisecond

	obs := &recordingObserver{}
	p := newTestPool(t, "shrink", cfg, obs)
	p.Prestart()

	g := newGate()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Execute(g.task()))
	}
	require.Equal(t, 3, p.Stats().Workers)

	g.release()

	require.Eventually(t, func() bool {
		_, stopped, _ := obs.counts()
		return p.Stats().Workers == 1 && stopped == 2
	}, 2*time.Second, 5*time.Millisecond)

	// The remaining core worker keeps serving.
	done := make(chan struct{})
	require.NoError(t, p.Execute(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("core worker did not run task after shrink")
	}
}

func TestZeroKeepAlive_SurplusExitsWhenIdle(t *testing.T) {
	cfg := api.ElasticPool(0, 2)
	cfg.KeepAlive = 0

	p := newTestPool(t, "eager", cfg, nil)
	require.Equal(t, 0, p.Prestart())

	done := make(chan struct{})
	require.NoError(t, p.Execute(func() { close(done) }))
	<-done

	require.Eventually(t, func() bool { return p.Stats().Workers == 0 }, time.Second, 5*time.Millisecond)
}

func TestBoundedQueue_ReportsOverload(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestPool(t, "bounded", api.FixedPool(1).Bounded(1), obs)
	p.Prestart()

	g := newGate()
	defer g.release()

	require.NoError(t, p.Execute(g.task()), "handed to the idle worker")
	require.NoError(t, p.Execute(g.task()), "queued")

	err := p.Execute(g.task())
	require.ErrorIs(t, err, api.ErrOverloaded)

	stats := p.Stats()
	require.Equal(t, int64(1), stats.Rejected)
	require.Equal(t, 1, stats.Queued)
	require.Len(t, obs.rejected, 1)
}

func TestPanickingTask_IsRecoveredAndWorkerSurvives(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestPool(t, "panics", api.FixedPool(1), obs)
	p.Prestart()

	require.NoError(t, p.Execute(func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, p.Execute(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive a panicking task")
	}

	_, _, panics := obs.counts()
	require.Equal(t, 1, panics)
	require.Equal(t, int64(1), p.Stats().Panicked)
	require.Equal(t, 1, p.Stats().Workers)
}

func TestExecute_NilTask(t *testing.T) {
	p := newTestPool(t, "nil", api.FixedPool(1), nil)
	require.ErrorIs(t, p.Execute(nil), api.ErrNilTask)
}

func TestShutdown_DrainsQueueThenRejects(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestPool(t, "drain", api.FixedPool(1), obs)
	p.Prestart()

	g := newGate()
	var ran atomic.Int64
	require.NoError(t, p.Execute(g.task()))
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Execute(func() { ran.Add(1) }))
	}

	shutdownErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		shutdownErr <- p.Shutdown(ctx)
	}()

	require.Eventually(t, func() bool { return p.Stats().Closed }, time.Second, time.Millisecond)
	require.ErrorIs(t, p.Execute(func() {}), api.ErrShutdown)

	g.release()
	require.NoError(t, <-shutdownErr)
	require.Equal(t, int64(3), ran.Load())
	require.Equal(t, 0, p.Stats().Workers)
	require.Len(t, obs.shutdown, 1)

	// Idempotent.
	require.NoError(t, p.Shutdown(context.Background()))
	require.Len(t, obs.shutdown, 1)
}

func TestShutdown_HonorsContext(t *testing.T) {
	p := newTestPool(t, "stuck", api.FixedPool(1), nil)
	p.Prestart()

	g := newGate()
	defer g.release()
	require.NoError(t, p.Execute(g.task()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShutdown_WithoutWorkers(t *testing.T) {
	p := newTestPool(t, "empty", api.ElasticPool(0, 1), nil)
	require.NoError(t, p.Shutdown(context.Background()))
	require.True(t, p.Stats().Closed)
}
