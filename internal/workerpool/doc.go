// Package workerpool implements the elastic goroutine pool that backs every
// relay executor.
//
// A Pool keeps CorePoolSize workers alive, grows up to MaximumPoolSize when
// a task arrives and no worker is idle, and queues tasks in FIFO order once
// it is at its maximum size. Workers above the core size exit after idling
// for the configured keep-alive.
//
// Each worker goroutine carries runtime/pprof labels naming its pool and
// itself (<pool>-<max>-<index>) so goroutine dumps and CPU profiles can be
// attributed to a pool. Workers never keep the process alive.
package workerpool
