package snapshot

import (
	"context"
	"sync"
)

// MemoryStore is a goroutine-safe Store backed by a slice.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps []Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Save(ctx context.Context, snaps []Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps = append(s.snaps, snaps...)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Snapshot
	for _, snap := range s.snaps {
		if f.match(snap) {
			out = append(out, snap)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}
