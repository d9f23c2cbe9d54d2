package api

import "time"

// PoolInfo is the diagnostic record emitted when a pool is created.
type PoolInfo struct {
	Name      string
	UnitID    int
	Core      int
	Max       int
	KeepAlive time.Duration
	Queue     QueueKind
	Capacity  int
}

// PoolStats is a point-in-time view of a pool. Counts are approximate
// while the pool is busy.
type PoolStats struct {
	Name    string
	Core    int
	Max     int
	Workers int
	Idle    int
	Active  int
	Queued  int

	// Largest is the highest worker count the pool has reached.
	Largest int

	Completed int64
	Rejected  int64
	Panicked  int64
	Closed    bool
}
