// Package relay dispatches work onto pre-warmed, bounded worker pools.
//
// A messaging layer receives messages on a handful of threads and must not
// run handlers on them. relay gives it a place to hand the work off: a set of
// named execution units, each backed by an elastic worker pool, and a
// strategy that decides which unit serves a given workload.
//
// # Core Concepts
//
//  1. PoolConfig
//  2. Factory and Unit
//  3. Strategy and Profile
//  4. Host
//
// # Pools and Units
//
// A PoolConfig fixes a pool's core size (workers kept alive while idle), its
// maximum size, how long surplus workers idle before exiting and whether the
// queue is bounded. Factory.Create validates the config, starts every core
// worker before returning and wraps the pool in a Unit with a stable name
// and ID. Worker goroutines carry the pprof label worker=<name>-<max>-<n>.
//
// Submitting to a Unit never blocks on task execution. When every worker is
// busy and the pool is at its maximum, tasks wait in a FIFO queue; a bounded
// queue that is full makes Submit return ErrOverloaded.
//
// # Strategies
//
// A Profile lists the pools to build, keyed by Category, and a Classifier
// that maps opaque workload identifiers onto categories. The default profile
// reserves a fixed pool for RequestMessageClientProcessor so a flood of
// other traffic cannot starve request handling; everything else shares an
// elastic general pool. The shared and isolated profiles drop or extend that
// separation.
//
// # Host
//
// Host is the embedding entry point. It builds the strategy on Start,
// exposes Dispatch and QueueDepth keyed by workload, and drains every pool
// on Stop. NewSQLiteHost additionally samples unit stats into SQLite for
// later inspection.
//
// # Observability
//
// Observers receive pool, worker and task lifecycle events:
//
//	obs := relay.NewCompositeObserver(
//		relay.NewLoggingObserver(slog.Default()),
//		&relay.BasicMetrics{},
//	)
//	host := relay.NewHost(profile, relay.WithObserver(obs))
//
// The metrics package exports the same events and live unit gauges to
// Prometheus.
package relay
