package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/relay/pkg/executor"
)

// UnitSource lists the units to sample. strategy.Strategy satisfies it.
type UnitSource interface {
	Units() []*executor.Unit
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithLogger sets the logger used to report failed saves.
func WithLogger(l *slog.Logger) SamplerOption {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) SamplerOption {
	return func(s *Sampler) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SamplerOption {
	return func(s *Sampler) {
		if now != nil {
			s.now = now
		}
	}
}

// Sampler periodically records the stats of every unit in a source.
type Sampler struct {
	store    Store
	source   UnitSource
	interval time.Duration
	runID    string
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSampler returns a stopped sampler. Each sampler gets a fresh random
// run ID unless WithRunID is given.
func NewSampler(store Store, source UnitSource, interval time.Duration, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		store:    store,
		source:   source,
		interval: interval,
		runID:    uuid.NewString(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunID identifies the samples written by s.
func (s *Sampler) RunID() string { return s.runID }

// RecordOnce samples every unit and saves the result as one batch.
func (s *Sampler) RecordOnce(ctx context.Context) error {
	units := s.source.Units()
	if len(units) == 0 {
		return nil
	}
	at := s.now()
	snaps := make([]Snapshot, 0, len(units))
	for _, u := range units {
		snaps = append(snaps, Snapshot{
			RunID:  s.runID,
			At:     at,
			UnitID: u.ID(),
			Stats:  u.Stats(),
		})
	}
	return s.store.Save(ctx, snaps)
}

// Start launches the sampling loop. It returns an error if the sampler is
// already running or the interval is not positive.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("snapshot: sampler already started")
	}
	if s.interval <= 0 {
		return errors.New("snapshot: sampler interval must be positive")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)
	return nil
}

func (s *Sampler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RecordOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.WarnContext(ctx, "snapshot_failed",
					slog.String("run_id", s.runID),
					slog.Any("error", err),
				)
			}
		}
	}
}

// Stop ends the sampling loop, waits for it to exit and records one final
// sample. It is a no-op on a sampler that is not running.
func (s *Sampler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.RecordOnce(ctx)
}
