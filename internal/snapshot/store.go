// Package snapshot records point-in-time samples of execution units so load
// can be inspected after the fact. Samples are written for diagnostics only;
// nothing reads them back to make scheduling decisions.
package snapshot

import (
	"context"
	"time"

	"github.com/petrijr/relay/pkg/api"
)

// Snapshot is one unit's state at a point in time.
type Snapshot struct {
	// RunID groups the samples taken by one Sampler.
	RunID  string
	At     time.Time
	UnitID int
	Stats  api.PoolStats
}

// Filter selects snapshots from a store. Empty fields mean "no filter".
type Filter struct {
	RunID string
	Unit  string
	// Limit caps the number of rows returned, newest last. Zero means all.
	Limit int
}

// Store persists snapshots.
type Store interface {
	// Save records every snapshot in snaps atomically.
	Save(ctx context.Context, snaps []Snapshot) error
	// List returns matching snapshots in the order they were saved.
	List(ctx context.Context, f Filter) ([]Snapshot, error)
}

func (f Filter) match(s Snapshot) bool {
	if f.RunID != "" && s.RunID != f.RunID {
		return false
	}
	if f.Unit != "" && s.Stats.Name != f.Unit {
		return false
	}
	return true
}
