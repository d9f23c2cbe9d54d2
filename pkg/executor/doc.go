// Package executor provides named execution units and the factory that
// builds them.
//
// A Unit wraps one Executor with a stable name and numeric ID and exposes
// task submission plus queue introspection. Units created by a Factory are
// backed by an elastic worker pool whose core workers are started before
// Create returns, so the first burst of work does not pay for goroutine
// start-up.
//
//	f := executor.NewFactory(api.NewLoggingObserver(logger))
//	unit, err := f.Create("processor-executor-general", api.ElasticPool(4, 8))
//	if err != nil {
//		return err
//	}
//	_ = unit.Submit(func() { handle(msg) })
//
// Any other Executor can be wrapped with NewUnit. Units over executors that
// do not expose QueueLen report a queue depth of zero.
package executor
