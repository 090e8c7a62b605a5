package zklite

// RawTransaction is one raw operation payload as returned by the settlement
// network's REST API or pushed over the live feed. Field contents are
// unvalidated; the ingestion normalizer owns all parsing.
type RawTransaction struct {
	TxHash      string `json:"txHash"`      // 0x-prefixed hex hash
	BlockNumber int64  `json:"blockNumber"` // settlement block
	CreatedAt   string `json:"createdAt"`   // RFC3339 settlement time
	Op          RawOp  `json:"op"`
}

// RawOp is the operation body of a raw transaction.
type RawOp struct {
	Type   string  `json:"type"`   // remote kind code, e.g. "Transfer"
	From   string  `json:"from"`   // originating address
	To     string  `json:"to"`     // recipient address, may be empty
	Token  string  `json:"token"`  // token symbol
	Amount string  `json:"amount"` // base-unit integer string, may be empty for fee-only ops
	Fee    *string `json:"fee"`    // base-unit integer string; null means no fee charged
}
