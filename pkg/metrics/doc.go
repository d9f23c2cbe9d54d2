// Package metrics exports relay pools to Prometheus.
//
// Observer turns lifecycle events into counters and is combined with other
// observers through api.NewCompositeObserver. UnitCollector samples each
// unit's live state (queue depth, workers) at scrape time.
package metrics
