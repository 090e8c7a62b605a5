package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/storage"
)

// SnapshotStore implements storage.BalanceSnapshotStore using ClickHouse.
//
// Quantities and prices are stored as decimal strings: ClickHouse Decimal
// columns cap precision, and the replay engine's exact-sum guarantee must
// survive archival round-trips.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BalanceSnapshotStore = (*SnapshotStore)(nil)

// InsertBulk adds all snapshots of one replay run.
// Fails the entire batch on any duplicate (run_at, address, asset).
func (s *SnapshotStore) InsertBulk(ctx context.Context, snaps []*domain.BalanceSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runAt   int64
		address string
		asset   string
	}
	seen := make(map[key]struct{}, len(snaps))
	for _, snap := range snaps {
		if snap == nil || snap.Address == "" || snap.Asset == "" {
			return storage.ErrInvalidInput
		}
		k := key{snap.RunAt, snap.Address, snap.Asset}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows: MergeTree does not
	// enforce uniqueness at insert time.
	for _, snap := range snaps {
		exists, err := s.exists(ctx, snap.RunAt, snap.Address, snap.Asset)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO balance_snapshots (run_at, address, asset, quantity, unit_price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		var price *string
		if snap.UnitPrice != nil {
			p := snap.UnitPrice.String()
			price = &p
		}
		err = batch.Append(
			uint64(snap.RunAt), snap.Address, snap.Asset,
			snap.Quantity.String(), price,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAddress retrieves snapshots for an address, ordered by run_at then asset.
func (s *SnapshotStore) GetByAddress(ctx context.Context, address string) ([]*domain.BalanceSnapshot, error) {
	query := `
		SELECT run_at, address, asset, quantity, unit_price
		FROM balance_snapshots
		WHERE address = ?
		ORDER BY run_at ASC, asset ASC
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by address: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// exists checks if a snapshot with the given key exists.
func (s *SnapshotStore) exists(ctx context.Context, runAt int64, address, asset string) (bool, error) {
	query := `
		SELECT count(*) FROM balance_snapshots
		WHERE run_at = ? AND address = ? AND asset = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, uint64(runAt), address, asset).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanSnapshots scans rows into a slice of BalanceSnapshot.
func scanSnapshots(rows driver.Rows) ([]*domain.BalanceSnapshot, error) {
	var snaps []*domain.BalanceSnapshot

	for rows.Next() {
		var (
			runAt    uint64
			snap     domain.BalanceSnapshot
			quantity string
			price    *string
		)
		if err := rows.Scan(&runAt, &snap.Address, &snap.Asset, &quantity, &price); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.RunAt = int64(runAt)
		q, err := decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("parse stored quantity %q: %w", quantity, err)
		}
		snap.Quantity = q
		if price != nil {
			p, err := decimal.NewFromString(*price)
			if err != nil {
				return nil, fmt.Errorf("parse stored unit price %q: %w", *price, err)
			}
			snap.UnitPrice = &p
		}
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
