package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/petrijr/relay/pkg/api"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS unit_snapshots (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			taken_at INTEGER NOT NULL,
			unit TEXT NOT NULL,
			unit_id INTEGER NOT NULL,
			core_size INTEGER NOT NULL,
			max_size INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			idle INTEGER NOT NULL,
			active INTEGER NOT NULL,
			queued INTEGER NOT NULL,
			largest INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			rejected INTEGER NOT NULL,
			panicked INTEGER NOT NULL,
			closed INTEGER NOT NULL
		);`,
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS unit_snapshots_run ON unit_snapshots (run_id, unit);`)
	return err
}

const snapshotColumns = `run_id, taken_at, unit, unit_id, core_size, max_size, workers, idle, active, queued, largest, completed, rejected, panicked, closed`

func (s *SQLiteStore) Save(ctx context.Context, snaps []Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unit_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, snap := range snaps {
		st := snap.Stats
		closed := 0
		if st.Closed {
			closed = 1
		}
		if _, err := stmt.ExecContext(ctx,
			snap.RunID,
			snap.At.UnixNano(),
			st.Name,
			snap.UnitID,
			st.Core,
			st.Max,
			st.Workers,
			st.Idle,
			st.Active,
			st.Queued,
			st.Largest,
			st.Completed,
			st.Rejected,
			st.Panicked,
			closed,
		); err != nil {
			return fmt.Errorf("save snapshot %s: %w", st.Name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Snapshot, error) {
	var (
		where []string
		args  []any
	)
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Unit != "" {
		where = append(where, "unit = ?")
		args = append(args, f.Unit)
	}

	query := "SELECT seq, " + snapshotColumns + " FROM unit_snapshots"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		// Newest rows, returned oldest first.
		query = "SELECT " + snapshotColumns + " FROM (" + query + " ORDER BY seq DESC LIMIT ?) ORDER BY seq"
		args = append(args, f.Limit)
	} else {
		query = "SELECT " + snapshotColumns + " FROM (" + query + ") ORDER BY seq"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap   Snapshot
			st     api.PoolStats
			nanos  int64
			closed int
		)
		if err := rows.Scan(
			&snap.RunID,
			&nanos,
			&st.Name,
			&snap.UnitID,
			&st.Core,
			&st.Max,
			&st.Workers,
			&st.Idle,
			&st.Active,
			&st.Queued,
			&st.Largest,
			&st.Completed,
			&st.Rejected,
			&st.Panicked,
			&closed,
		); err != nil {
			return nil, err
		}
		snap.At = time.Unix(0, nanos)
		st.Closed = closed != 0
		snap.Stats = st
		out = append(out, snap)
	}
	return out, rows.Err()
}
