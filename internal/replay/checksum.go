package replay

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"zklite-ledger/internal/domain"
)

// LedgerChecksum computes a deterministic SHA256 digest over records in
// replay order. Two stores holding the same ledger produce the same
// checksum regardless of insertion order, so it doubles as a cheap
// cross-environment consistency check before comparing replay results.
// Formula per record: SHA256 over "tx_hash|kind|timestamp|asset|amount|fee"
// lines, with "-" for an absent fee.
func LedgerChecksum(txs []*domain.Transaction) string {
	sorted := make([]*domain.Transaction, len(txs))
	copy(sorted, txs)
	SortTransactions(sorted)

	h := sha256.New()
	for _, tx := range sorted {
		fee := "-"
		if tx.Fee != nil {
			fee = tx.Fee.String()
		}
		fmt.Fprintf(h, "%x|%s|%d|%s|%s|%s\n",
			tx.TxHash,
			tx.Kind,
			tx.Timestamp,
			tx.Asset,
			tx.Amount.String(),
			fee,
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}
