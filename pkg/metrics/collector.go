package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/petrijr/relay/pkg/executor"
)

// UnitSource lists the units to export. strategy.Strategy satisfies it.
type UnitSource interface {
	Units() []*executor.Unit
}

// UnitCollector reports the live state of every unit in a source on each
// scrape.
type UnitCollector struct {
	source UnitSource

	queueDepth *prometheus.Desc
	workers    *prometheus.Desc
	active     *prometheus.Desc
	largest    *prometheus.Desc
	completed  *prometheus.Desc
}

var _ prometheus.Collector = (*UnitCollector)(nil)

func NewUnitCollector(namespace string, source UnitSource) *UnitCollector {
	labels := []string{"unit"}
	return &UnitCollector{
		source:     source,
		queueDepth: prometheus.NewDesc(prometheus.BuildFQName(namespace, "unit", "queue_depth"), "Tasks queued but not yet started", labels, nil),
		workers:    prometheus.NewDesc(prometheus.BuildFQName(namespace, "unit", "workers"), "Live worker goroutines", labels, nil),
		active:     prometheus.NewDesc(prometheus.BuildFQName(namespace, "unit", "active_workers"), "Workers currently running a task", labels, nil),
		largest:    prometheus.NewDesc(prometheus.BuildFQName(namespace, "unit", "largest_workers"), "Largest number of workers seen", labels, nil),
		completed:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "unit", "tasks_completed_total"), "Tasks that ran to completion", labels, nil),
	}
}

func (c *UnitCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueDepth
	ch <- c.workers
	ch <- c.active
	ch <- c.largest
	ch <- c.completed
}

func (c *UnitCollector) Collect(ch chan<- prometheus.Metric) {
	for _, u := range c.source.Units() {
		st := u.Stats()
		name := u.Name()
		ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(st.Queued), name)
		ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(st.Workers), name)
		ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(st.Active), name)
		ch <- prometheus.MustNewConstMetric(c.largest, prometheus.GaugeValue, float64(st.Largest), name)
		ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(st.Completed), name)
	}
}
