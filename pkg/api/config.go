package api

import (
	"fmt"
	"time"
)

// DefaultKeepAlive is how long surplus workers stay idle before exiting.
const DefaultKeepAlive = 60 * time.Second

// QueueKind selects how a pool buffers tasks that no worker can take yet.
type QueueKind int

const (
	// QueueUnbounded accepts any backlog. Submit never blocks and never
	// reports overload; memory grows under sustained overload instead.
	QueueUnbounded QueueKind = iota

	// QueueBounded holds at most PoolConfig.QueueCapacity tasks. Submit
	// returns ErrOverloaded once the queue is full and the pool is at its
	// maximum size.
	QueueBounded
)

func (k QueueKind) String() string {
	switch k {
	case QueueUnbounded:
		return "unbounded"
	case QueueBounded:
		return "bounded"
	default:
		return fmt.Sprintf("QueueKind(%d)", int(k))
	}
}

// PoolConfig sizes a worker pool.
type PoolConfig struct {
	// CorePoolSize is the number of workers kept alive while idle.
	CorePoolSize int

	// MaximumPoolSize caps the number of workers under load.
	MaximumPoolSize int

	// KeepAlive is how long a worker above CorePoolSize may stay idle.
	// Zero means surplus workers exit as soon as they run out of work.
	KeepAlive time.Duration

	Queue         QueueKind
	QueueCapacity int
}

// FixedPool returns an unbounded-queue config with core == max == n.
func FixedPool(n int) PoolConfig {
	return PoolConfig{
		CorePoolSize:    n,
		MaximumPoolSize: n,
		KeepAlive:       DefaultKeepAlive,
		Queue:           QueueUnbounded,
	}
}

// ElasticPool returns an unbounded-queue config that keeps core workers and
// grows up to max.
func ElasticPool(core, max int) PoolConfig {
	return PoolConfig{
		CorePoolSize:    core,
		MaximumPoolSize: max,
		KeepAlive:       DefaultKeepAlive,
		Queue:           QueueUnbounded,
	}
}

// Bounded returns a copy of c using a bounded queue of the given capacity.
func (c PoolConfig) Bounded(capacity int) PoolConfig {
	c.Queue = QueueBounded
	c.QueueCapacity = capacity
	return c
}

// Validate reports the first invalid field as a *ConfigError.
func (c PoolConfig) Validate() error {
	if c.CorePoolSize < 0 {
		return configErrorf("corePoolSize", "must be >= 0, got %d", c.CorePoolSize)
	}
	if c.MaximumPoolSize < c.CorePoolSize {
		return configErrorf("maximumPoolSize", "must be >= corePoolSize (%d), got %d", c.CorePoolSize, c.MaximumPoolSize)
	}
	if c.MaximumPoolSize < 1 {
		return configErrorf("maximumPoolSize", "must be >= 1, got %d", c.MaximumPoolSize)
	}
	if c.KeepAlive < 0 {
		return configErrorf("keepAlive", "must be >= 0, got %s", c.KeepAlive)
	}
	switch c.Queue {
	case QueueUnbounded:
	case QueueBounded:
		if c.QueueCapacity < 1 {
			return configErrorf("queueCapacity", "must be >= 1 for a bounded queue, got %d", c.QueueCapacity)
		}
	default:
		return configErrorf("queue", "unknown kind %v", c.Queue)
	}
	return nil
}
