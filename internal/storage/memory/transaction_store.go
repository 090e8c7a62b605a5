package memory

import (
	"context"
	"sort"
	"sync"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by string(tx_hash)
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

// Upsert inserts if the hash is absent, no-op otherwise.
func (s *TransactionStore) Upsert(_ context.Context, tx *domain.Transaction) (bool, error) {
	if tx == nil || len(tx.TxHash) != domain.TxHashLen {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(tx.TxHash)
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = tx.Clone()
	return true, nil
}

// UpsertBatch upserts all transactions, returning the count of new rows.
func (s *TransactionStore) UpsertBatch(_ context.Context, txs []*domain.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, tx := range txs {
		if tx == nil || len(tx.TxHash) != domain.TxHashLen {
			return inserted, storage.ErrInvalidInput
		}
		key := string(tx.TxHash)
		if _, exists := s.data[key]; exists {
			continue
		}
		s.data[key] = tx.Clone()
		inserted++
	}
	return inserted, nil
}

// GetAll retrieves the full ledger in replay order.
func (s *TransactionStore) GetAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0, len(s.data))
	for _, tx := range s.data {
		result = append(result, tx.Clone())
	}
	sortReplayOrder(result)
	return result, nil
}

// GetByAddress retrieves records where the address is sender or recipient.
func (s *TransactionStore) GetByAddress(_ context.Context, address string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if tx.FromAddress == address || tx.ToAddress == address {
			result = append(result, tx.Clone())
		}
	}
	sortReplayOrder(result)
	return result, nil
}

// GetByTimeRange retrieves records for an address within [start, end] (inclusive).
func (s *TransactionStore) GetByTimeRange(_ context.Context, address string, start, end int64) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if tx.Timestamp < start || tx.Timestamp > end {
			continue
		}
		if tx.FromAddress == address || tx.ToAddress == address {
			result = append(result, tx.Clone())
		}
	}
	sortReplayOrder(result)
	return result, nil
}

// GetByHash retrieves a single record. Returns ErrNotFound if absent.
func (s *TransactionStore) GetByHash(_ context.Context, txHash []byte) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.data[string(txHash)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return tx.Clone(), nil
}

func sortReplayOrder(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		return domain.Compare(txs[i], txs[j]) < 0
	})
}
