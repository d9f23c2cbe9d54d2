package executor

import (
	"context"

	"github.com/petrijr/relay/pkg/api"
)

// Executor runs submitted tasks asynchronously.
//
// Implementations may additionally expose
//
//	QueueLen() int
//	Stats() api.PoolStats
//
// which Unit uses for load introspection when present.
type Executor interface {
	Execute(task api.Task) error
	Shutdown(ctx context.Context) error
}

type queueLener interface {
	QueueLen() int
}

type statser interface {
	Stats() api.PoolStats
}

// Unit is a named execution unit: one executor with a stable name and ID.
// Name, ID and the executor never change after construction. A Unit owns its
// executor; shutting the unit down shuts the executor down.
type Unit struct {
	name string
	id   int
	exec Executor
}

// NewUnit wraps exec. It panics if exec is nil.
func NewUnit(name string, id int, exec Executor) *Unit {
	if exec == nil {
		panic("executor: NewUnit called with nil Executor")
	}
	return &Unit{name: name, id: id, exec: exec}
}

// Name returns the unit name, also used as the worker name prefix.
func (u *Unit) Name() string { return u.name }

// ID returns the unit ID assigned at creation.
func (u *Unit) ID() int { return u.id }

// Submit enqueues task for asynchronous execution. It does not wait for
// the task to start. Under a bounded queue it may return an error wrapping
// api.ErrOverloaded; after Shutdown it returns an error wrapping
// api.ErrShutdown.
func (u *Unit) Submit(task api.Task) error {
	if task == nil {
		return api.ErrNilTask
	}
	return u.exec.Execute(task)
}

// QueueDepth returns the approximate number of tasks queued but not yet
// started, or 0 if the executor does not expose its queue.
func (u *Unit) QueueDepth() int {
	if q, ok := u.exec.(queueLener); ok {
		return q.QueueLen()
	}
	return 0
}

// Stats returns the executor's stats, or a record carrying only the unit
// name and queue depth if the executor does not expose any.
func (u *Unit) Stats() api.PoolStats {
	if s, ok := u.exec.(statser); ok {
		stats := s.Stats()
		stats.Name = u.name
		return stats
	}
	return api.PoolStats{Name: u.name, Queued: u.QueueDepth()}
}

// Shutdown stops the underlying executor and waits for it to drain.
func (u *Unit) Shutdown(ctx context.Context) error {
	return u.exec.Shutdown(ctx)
}

func (u *Unit) String() string { return u.name }
