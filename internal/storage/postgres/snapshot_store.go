package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/storage"
)

// SnapshotStore implements storage.BalanceSnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BalanceSnapshotStore = (*SnapshotStore)(nil)

// InsertBulk adds all snapshots of one replay run atomically.
// Fails the entire batch on any duplicate (run_at, address, asset).
func (s *SnapshotStore) InsertBulk(ctx context.Context, snaps []*domain.BalanceSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbtx.Rollback(ctx)

	query := `
		INSERT INTO balance_snapshots (run_at, address, asset, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, snap := range snaps {
		if snap == nil || snap.Address == "" || snap.Asset == "" {
			return storage.ErrInvalidInput
		}
		var price *string
		if snap.UnitPrice != nil {
			p := snap.UnitPrice.String()
			price = &p
		}
		_, err := dbtx.Exec(ctx, query,
			snap.RunAt,
			snap.Address,
			snap.Asset,
			snap.Quantity.String(),
			price,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert balance snapshot: %w", err)
		}
	}

	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByAddress retrieves snapshots for an address, ordered by run_at then asset.
func (s *SnapshotStore) GetByAddress(ctx context.Context, address string) ([]*domain.BalanceSnapshot, error) {
	query := `
		SELECT run_at, address, asset, quantity::text, unit_price::text
		FROM balance_snapshots
		WHERE address = $1
		ORDER BY run_at ASC, asset ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by address: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// scanSnapshots scans multiple rows into a slice of BalanceSnapshot.
func scanSnapshots(rows pgx.Rows) ([]*domain.BalanceSnapshot, error) {
	var snaps []*domain.BalanceSnapshot

	for rows.Next() {
		var (
			snap     domain.BalanceSnapshot
			quantity string
			price    *string
		)
		err := rows.Scan(&snap.RunAt, &snap.Address, &snap.Asset, &quantity, &price)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.Quantity, err = decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("parse stored quantity %q: %w", quantity, err)
		}
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
