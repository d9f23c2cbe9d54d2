package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/petrijr/relay/internal/snapshot"
	"github.com/petrijr/relay/pkg/api"
	"github.com/petrijr/relay/pkg/executor"
	"github.com/petrijr/relay/pkg/strategy"
)

// HostOption configures a Host.
type HostOption func(*Host)

// WithObserver routes pool lifecycle events to obs.
func WithObserver(obs Observer) HostOption {
	return func(h *Host) {
		if obs != nil {
			h.observer = obs
		}
	}
}

// WithLogger sets the logger used by the host and its sampler.
func WithLogger(l *slog.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSnapshots records the stats of every unit to store each interval
// while the host runs, and once more on Stop.
func WithSnapshots(store snapshot.Store, interval time.Duration) HostOption {
	return func(h *Host) {
		h.store = store
		h.interval = interval
	}
}

type hostState int

const (
	hostIdle hostState = iota
	hostRunning
	hostStopped
)

// Host owns one Strategy and dispatches workloads to it.
//
// Typical usage:
//
//	host := relay.NewHost(relay.DefaultProfile(relay.Concurrency()))
//	if err := host.Start(ctx); err != nil {
//		return err
//	}
//	defer host.Stop(context.Background())
//
//	_ = host.Dispatch(relay.WorkloadRequestMessage, func() { ... })
//
// A Host can be started once. Stop is terminal.
type Host struct {
	profile  Profile
	observer Observer
	logger   *slog.Logger
	store    snapshot.Store
	interval time.Duration

	mu       sync.RWMutex
	state    hostState
	registry *strategy.Registry
	sampler  *snapshot.Sampler
}

// NewHost returns a host that builds its pools from p on Start.
func NewHost(p Profile, opts ...HostOption) *Host {
	h := &Host{
		profile:  p,
		observer: api.NoopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start builds and pre-warms every pool of the profile. It fails with an
// error matching ErrInvalidConfig if the profile is invalid, in which case
// no pool is left running. ctx is handed to observer callbacks and bounds
// the snapshot sampler.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case hostRunning:
		return errors.New("relay: host already started")
	case hostStopped:
		return fmt.Errorf("relay: host cannot restart: %w", ErrShutdown)
	}

	reg, err := strategy.New(executor.NewFactoryWithContext(ctx, h.observer), h.profile)
	if err != nil {
		return err
	}

	var sampler *snapshot.Sampler
	if h.store != nil && h.interval > 0 {
		sampler = snapshot.NewSampler(h.store, reg, h.interval, snapshot.WithLogger(h.logger))
		if err := sampler.Start(ctx); err != nil {
			_ = reg.Shutdown(context.Background())
			return err
		}
	}

	h.registry = reg
	h.sampler = sampler
	h.state = hostRunning

	h.logger.InfoContext(ctx, "host_started",
		slog.String("profile", reg.Profile()),
		slog.Int("units", len(reg.Units())),
	)
	return nil
}

// Dispatch submits task to the unit serving workload. It returns
// ErrNotStarted before Start and after Stop, and otherwise whatever the
// unit's Submit returns.
func (h *Host) Dispatch(workload string, task Task) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state != hostRunning {
		return ErrNotStarted
	}
	return h.registry.Lookup(workload).Submit(task)
}

// Unit returns the unit serving workload.
func (h *Host) Unit(workload string) (*Unit, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state != hostRunning {
		return nil, ErrNotStarted
	}
	return h.registry.Lookup(workload), nil
}

// QueueDepth returns the queue depth of the unit serving workload, or 0 if
// the host is not running.
func (h *Host) QueueDepth(workload string) int {
	u, err := h.Unit(workload)
	if err != nil {
		return 0
	}
	return u.QueueDepth()
}

// Stats returns the stats of every unit in creation order. After Stop it
// keeps reporting the final state of the drained units.
func (h *Host) Stats() []PoolStats {
	h.mu.RLock()
	reg := h.registry
	h.mu.RUnlock()

	if reg == nil {
		return nil
	}
	units := reg.Units()
	out := make([]PoolStats, 0, len(units))
	for _, u := range units {
		out = append(out, u.Stats())
	}
	return out
}

// Strategy returns the running strategy, or nil before Start.
func (h *Host) Strategy() Strategy {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.registry == nil {
		return nil
	}
	return h.registry
}

// RunID returns the snapshot run ID, or "" when snapshots are disabled.
func (h *Host) RunID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.sampler == nil {
		return ""
	}
	return h.sampler.RunID()
}

// Stop stops accepting work, drains every unit and waits for all workers to
// exit or for ctx to be done. Calling Stop on a host that is not running is
// a no-op.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	if h.state != hostRunning {
		h.mu.Unlock()
		return nil
	}
	h.state = hostStopped
	reg, sampler := h.registry, h.sampler
	h.mu.Unlock()

	var errs []error
	if err := reg.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if sampler != nil {
		if err := sampler.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final snapshot: %w", err))
		}
	}

	h.logger.InfoContext(ctx, "host_stopped", slog.String("profile", reg.Profile()))
	return errors.Join(errs...)
}
