package replay

import (
	"sort"

	"zklite-ledger/internal/domain"
)

// SortTransactions orders records by (timestamp ASC, tx_hash bytes ASC).
// The hash tie-break gives equal-timestamp records a total, reproducible
// order: the remote source returns them in random order.
func SortTransactions(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		return domain.Compare(txs[i], txs[j]) < 0
	})
}

// ValidateOrdering checks that records are in strict replay order.
// Returns ErrInvalidOrdering if not.
func ValidateOrdering(txs []*domain.Transaction) error {
	for i := 1; i < len(txs); i++ {
		if domain.Compare(txs[i-1], txs[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}
