package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
//
// Idempotent writes rely on the tx_hash primary key and ON CONFLICT DO
// NOTHING, so concurrent upserts of the same record resolve to exactly one
// row without application-level locking. Amounts round-trip through NUMERIC
// as decimal strings; a NULL fee is distinct from an explicit zero fee.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const upsertQuery = `
	INSERT INTO transactions (
		tx_hash, kind, timestamp, block_number, from_address, to_address, asset, amount, fee
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (tx_hash) DO NOTHING
`

const selectColumns = `
	tx_hash, kind, timestamp, block_number, from_address, to_address,
	asset, amount::text, fee::text
`

// Upsert inserts if the hash is absent, no-op otherwise.
func (s *TransactionStore) Upsert(ctx context.Context, tx *domain.Transaction) (bool, error) {
	if tx == nil || len(tx.TxHash) != domain.TxHashLen {
		return false, storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, upsertQuery, upsertArgs(tx)...)
	if err != nil {
		return false, fmt.Errorf("upsert transaction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertBatch upserts all transactions in one database transaction and
// returns the count of newly written rows.
func (s *TransactionStore) UpsertBatch(ctx context.Context, txs []*domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer dbtx.Rollback(ctx)

	inserted := 0
	for _, tx := range txs {
		if tx == nil || len(tx.TxHash) != domain.TxHashLen {
			return 0, storage.ErrInvalidInput
		}
		tag, err := dbtx.Exec(ctx, upsertQuery, upsertArgs(tx)...)
		if err != nil {
			return 0, fmt.Errorf("upsert transaction in batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := dbtx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

// GetAll retrieves the full ledger in replay order.
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM transactions
		ORDER BY timestamp ASC, tx_hash ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByAddress retrieves records where the address is sender or recipient.
func (s *TransactionStore) GetByAddress(ctx context.Context, address string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM transactions
		WHERE from_address = $1 OR to_address = $1
		ORDER BY timestamp ASC, tx_hash ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get transactions by address: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByTimeRange retrieves records for an address within [start, end] (inclusive).
func (s *TransactionStore) GetByTimeRange(ctx context.Context, address string, start, end int64) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM transactions
		WHERE (from_address = $1 OR to_address = $1)
		  AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC, tx_hash ASC
	`

	rows, err := s.pool.Query(ctx, query, address, start, end)
	if err != nil {
		return nil, fmt.Errorf("get transactions by time range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByHash retrieves a single record. Returns ErrNotFound if absent.
func (s *TransactionStore) GetByHash(ctx context.Context, txHash []byte) (*domain.Transaction, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM transactions
		WHERE tx_hash = $1
	`

	row := s.pool.QueryRow(ctx, query, txHash)
	tx, err := scanTransaction(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by hash: %w", err)
	}
	return tx, nil
}

func upsertArgs(tx *domain.Transaction) []any {
	var fee *string
	if tx.Fee != nil {
		f := tx.Fee.String()
		fee = &f
	}
	return []any{
		tx.TxHash,
		string(tx.Kind),
		tx.Timestamp,
		tx.BlockNumber,
		tx.FromAddress,
		tx.ToAddress,
		tx.Asset,
		tx.Amount.String(),
		fee,
	}
}

// scanTransaction scans a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx     domain.Transaction
		kind   string
		amount string
		fee    *string
	)

	err := row.Scan(
		&tx.TxHash,
		&kind,
		&tx.Timestamp,
		&tx.BlockNumber,
		&tx.FromAddress,
		&tx.ToAddress,
		&tx.Asset,
		&amount,
		&fee,
	)
	if err != nil {
		return nil, err
	}

	tx.Kind = domain.TxKind(kind)
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if fee != nil {
		f, err := decimal.NewFromString(*fee)
		if err != nil {
			return nil, fmt.Errorf("parse stored fee %q: %w", *fee, err)
		}
		tx.Fee = &f
	}
	return &tx, nil
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
