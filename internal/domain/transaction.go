package domain

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// TxKind classifies a transaction's balance-effect rule.
type TxKind string

// Transaction kind constants. The set is extensible: replay rejects kinds
// it has no effect rule for instead of silently skipping them.
const (
	TxDeposit      TxKind = "deposit"
	TxTransfer     TxKind = "transfer"
	TxWithdraw     TxKind = "withdraw"
	TxChangePubKey TxKind = "changepubkey"
	TxForcedExit   TxKind = "forcedexit"
	TxFullExit     TxKind = "fullexit"
)

// TxHashLen is the length of a transaction hash in bytes.
const TxHashLen = 32

// Transaction is the canonical ledger record, normalized from one raw
// remote payload. Immutable once persisted; the store hands out copies.
// Corresponds to the transactions table in PostgreSQL.
type Transaction struct {
	TxHash      []byte          // 32-byte hash, primary dedupe key
	Kind        TxKind          // balance-effect discriminator
	Timestamp   int64           // Unix timestamp in seconds, primary ordering key
	BlockNumber int64           // settlement block, context only
	FromAddress string          // originating party, empty if absent
	ToAddress   string          // recipient, empty if absent (e.g. changepubkey)
	Asset       string          // resolved asset identifier
	Amount      decimal.Decimal // value moved, zero valid for fee-only kinds
	Fee         *decimal.Decimal // nil means no fee charged; explicit zero is a distinct state
}

// Compare returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp ASC, tx_hash bytes ASC). The remote source offers no
// ordering guarantee for equal timestamps, so the hash tie-break manufactures
// a total, reproducible replay order locally.
func Compare(a, b *Transaction) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.TxHash, b.TxHash)
}

// Clone returns a deep copy that shares no mutable state with the original.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.TxHash = append([]byte(nil), t.TxHash...)
	if t.Fee != nil {
		fee := *t.Fee
		c.Fee = &fee
	}
	return &c
}

// HasFee reports whether a fee was charged on this record. A present
// zero-value fee still counts as charged.
func (t *Transaction) HasFee() bool {
	return t.Fee != nil
}
