package executor

import (
	"context"
	"sync/atomic"

	"github.com/petrijr/relay/internal/workerpool"
	"github.com/petrijr/relay/pkg/api"
)

// Factory builds pre-warmed units backed by elastic worker pools.
type Factory struct {
	observer api.Observer
	ctx      context.Context
	nextID   atomic.Int64
}

// NewFactory returns a Factory reporting to obs. A nil obs is replaced by
// api.NoopObserver.
func NewFactory(obs api.Observer) *Factory {
	return NewFactoryWithContext(context.Background(), obs)
}

// NewFactoryWithContext is NewFactory with the context handed to observer
// callbacks and used as the parent of worker pprof labels.
func NewFactoryWithContext(ctx context.Context, obs api.Observer) *Factory {
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &Factory{observer: obs, ctx: ctx}
}

// Create validates cfg, builds a pool named name, starts all of its core
// workers and returns the unit wrapping it. Invalid sizing fails with an
// error matching api.ErrInvalidConfig and no unit is produced.
//
// Workers are named <name>-<maximumPoolSize>-<index>.
func (f *Factory) Create(name string, cfg api.PoolConfig) (*Unit, error) {
	pool, err := workerpool.New(name, cfg,
		workerpool.WithObserver(f.observer),
		workerpool.WithContext(f.ctx),
	)
	if err != nil {
		return nil, err
	}

	pool.Prestart()

	id := int(f.nextID.Add(1))
	f.observer.OnPoolCreated(f.ctx, api.PoolInfo{
		Name:      name,
		UnitID:    id,
		Core:      cfg.CorePoolSize,
		Max:       cfg.MaximumPoolSize,
		KeepAlive: cfg.KeepAlive,
		Queue:     cfg.Queue,
		Capacity:  cfg.QueueCapacity,
	})

	return NewUnit(name, id, pool), nil
}
