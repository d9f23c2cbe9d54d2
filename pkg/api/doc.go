// Package api contains the core building blocks shared by the relay
// executors and strategies: pool sizing, workload categories, the error
// taxonomy and the Observer interface.
//
// Most users interact with the higher-level relay package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom strategies, or contributors extending the
// dispatch layer itself.
//
// # Pool Sizing
//
// PoolConfig describes a pool: the number of workers kept alive while idle
// (core), the number it may grow to under load (maximum), how long surplus
// workers may idle (keep-alive) and how the queue behaves once every worker
// is busy. FixedPool and ElasticPool build the two shapes used by the default
// strategy.
//
// A PoolConfig whose maximum is smaller than its core fails Validate with a
// *ConfigError. Configuration errors are never corrected silently.
//
// # Workload Categories
//
// The messaging layer hands the dispatch layer an opaque workload identifier
// (typically the name of the processor that received a message). A
// Classifier turns that identifier into one of a closed set of Category
// values, and a strategy maps each Category onto an executor.
//
// # Errors
//
//   - ErrInvalidConfig: invalid sizing, surfaced at construction time.
//   - ErrOverloaded: a bounded queue is full and the pool is at maximum size.
//   - ErrShutdown: the executor no longer accepts work.
//
// Panics raised by tasks are recovered by the pool and reported through
// Observer.OnTaskPanic; they are not returned to the submitter.
//
// # Observability
//
// The Observer interface is used by pools and factories to report lifecycle
// events. LoggingObserver writes them through log/slog, BasicMetrics keeps
// in-memory counters, and NewCompositeObserver fans out to several
// observers at once.
package api
