package storage

import (
	"context"

	"zklite-ledger/internal/domain"
)

// TransactionStore provides access to the persisted transaction ledger.
//
// All ordered retrievals sort ascending by (timestamp, tx_hash bytes) so that
// replay order is total and reproducible across runs. Implementations must
// guarantee that concurrent Upsert calls for the same hash produce exactly
// one stored row (uniqueness constraint, not application locking).
type TransactionStore interface {
	// Upsert inserts the transaction if its hash is absent and is a no-op
	// otherwise. Returns true when a new row was written.
	Upsert(ctx context.Context, tx *domain.Transaction) (bool, error)

	// UpsertBatch upserts every transaction in order and returns the number
	// of newly written rows. Already-present hashes are skipped, never
	// duplicated.
	UpsertBatch(ctx context.Context, txs []*domain.Transaction) (int, error)

	// GetAll retrieves the full ledger in replay order.
	GetAll(ctx context.Context) ([]*domain.Transaction, error)

	// GetByAddress retrieves records where the address appears as sender or
	// recipient, in replay order.
	GetByAddress(ctx context.Context, address string) ([]*domain.Transaction, error)

	// GetByTimeRange retrieves records for an address within [start, end]
	// (inclusive), in replay order.
	GetByTimeRange(ctx context.Context, address string, start, end int64) ([]*domain.Transaction, error)

	// GetByHash retrieves a single record. Returns ErrNotFound if absent.
	GetByHash(ctx context.Context, txHash []byte) (*domain.Transaction, error)
}

// BalanceSnapshotStore archives the output of replay runs for later
// inspection and analytics.
type BalanceSnapshotStore interface {
	// InsertBulk adds all snapshots of one replay run. Fails the entire
	// batch on any duplicate (run_at, address, asset).
	InsertBulk(ctx context.Context, snaps []*domain.BalanceSnapshot) error

	// GetByAddress retrieves all archived snapshots for an address,
	// ordered by run_at ASC then asset ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.BalanceSnapshot, error)
}
