package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petrijr/relay/pkg/api"
)

// Observer is an api.Observer that counts pool lifecycle events per pool.
type Observer struct {
	poolsCreated   *prometheus.CounterVec
	poolMaxSize    *prometheus.GaugeVec
	workersStarted *prometheus.CounterVec
	workersStopped *prometheus.CounterVec
	tasksRejected  *prometheus.CounterVec
	tasksPanicked  *prometheus.CounterVec
	poolsShutdown  *prometheus.CounterVec
}

var _ api.Observer = (*Observer)(nil)

// NewObserver creates the collectors without registering them.
func NewObserver(namespace string) *Observer {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{"pool"})
	}
	return &Observer{
		poolsCreated:   counter("pools_created_total", "Pools created and pre-warmed"),
		workersStarted: counter("workers_started_total", "Worker goroutines started"),
		workersStopped: counter("workers_stopped_total", "Worker goroutines exited"),
		tasksRejected:  counter("tasks_rejected_total", "Tasks refused by overload or shutdown"),
		tasksPanicked:  counter("tasks_panicked_total", "Tasks that panicked and were recovered"),
		poolsShutdown:  counter("pools_shutdown_total", "Pools that finished draining"),
		poolMaxSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_maximum_size",
			Help:      "Configured maximum number of workers",
		}, []string{"pool"}),
	}
}

// Collectors returns every collector owned by o.
func (o *Observer) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		o.poolsCreated,
		o.poolMaxSize,
		o.workersStarted,
		o.workersStopped,
		o.tasksRejected,
		o.tasksPanicked,
		o.poolsShutdown,
	}
}

// Register registers every collector with reg.
func (o *Observer) Register(reg prometheus.Registerer) error {
	for _, c := range o.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (o *Observer) OnPoolCreated(ctx context.Context, info api.PoolInfo) {
	o.poolsCreated.WithLabelValues(info.Name).Inc()
	o.poolMaxSize.WithLabelValues(info.Name).Set(float64(info.Max))
}

func (o *Observer) OnWorkerStart(ctx context.Context, pool, worker string) {
	o.workersStarted.WithLabelValues(pool).Inc()
}

func (o *Observer) OnWorkerStop(ctx context.Context, pool, worker string) {
	o.workersStopped.WithLabelValues(pool).Inc()
}

func (o *Observer) OnTaskRejected(ctx context.Context, pool string, err error) {
	o.tasksRejected.WithLabelValues(pool).Inc()
}

func (o *Observer) OnTaskPanic(ctx context.Context, pool, worker string, recovered any) {
	o.tasksPanicked.WithLabelValues(pool).Inc()
}

func (o *Observer) OnPoolShutdown(ctx context.Context, stats api.PoolStats) {
	o.poolsShutdown.WithLabelValues(stats.Name).Inc()
}
