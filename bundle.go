package relay

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/petrijr/relay/internal/snapshot"
)

// RecordedHost is a Host whose unit snapshots are persisted in SQLite.
type RecordedHost struct {
	*Host

	store *snapshot.SQLiteStore
}

// NewSQLiteHost constructs a Host that samples every unit into the provided
// *sql.DB each interval.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:relay.db?_journal=WAL")
//	host, err := relay.NewSQLiteHost(db, relay.DefaultProfile(4), time.Second)
//	// host.Start(ctx), host.Dispatch(...), host.Stop(ctx)
//	snaps, _ := host.Snapshots(ctx, "processor-executor-request")
func NewSQLiteHost(db *sql.DB, p Profile, interval time.Duration, opts ...HostOption) (*RecordedHost, error) {
	if interval <= 0 {
		return nil, errors.New("relay: snapshot interval must be positive")
	}
	store, err := snapshot.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}

	opts = append(opts, WithSnapshots(store, interval))
	return &RecordedHost{
		Host:  NewHost(p, opts...),
		store: store,
	}, nil
}

// Snapshots returns the samples recorded by this host's current run for
// unit, or for every unit when unit is empty.
func (h *RecordedHost) Snapshots(ctx context.Context, unit string) ([]Snapshot, error) {
	runID := h.RunID()
	if runID == "" {
		return nil, ErrNotStarted
	}
	return h.store.List(ctx, snapshot.Filter{RunID: runID, Unit: unit})
}
