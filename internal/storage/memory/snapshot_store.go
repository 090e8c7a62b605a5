package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.BalanceSnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BalanceSnapshot // keyed by (run_at, address, asset)
}

// NewSnapshotStore creates a new in-memory balance snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.BalanceSnapshot),
	}
}

var _ storage.BalanceSnapshotStore = (*SnapshotStore)(nil)

func snapshotKey(runAt int64, address, asset string) string {
	return fmt.Sprintf("%d|%s|%s", runAt, address, asset)
}

// InsertBulk adds all snapshots of one replay run atomically.
func (s *SnapshotStore) InsertBulk(_ context.Context, snaps []*domain.BalanceSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(snaps))
	for _, snap := range snaps {
		if snap == nil || snap.Address == "" || snap.Asset == "" {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(snap.RunAt, snap.Address, snap.Asset)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, snap := range snaps {
		c := *snap
		if snap.UnitPrice != nil {
			p := *snap.UnitPrice
			c.UnitPrice = &p
		}
		s.data[snapshotKey(snap.RunAt, snap.Address, snap.Asset)] = &c
	}
	return nil
}

// GetByAddress retrieves snapshots for an address, ordered by run_at then asset.
func (s *SnapshotStore) GetByAddress(_ context.Context, address string) ([]*domain.BalanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BalanceSnapshot
	for _, snap := range s.data {
		if snap.Address == address {
			c := *snap
			if snap.UnitPrice != nil {
				p := *snap.UnitPrice
				c.UnitPrice = &p
			}
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RunAt != result[j].RunAt {
			return result[i].RunAt < result[j].RunAt
		}
		return result[i].Asset < result[j].Asset
	})
	return result, nil
}
