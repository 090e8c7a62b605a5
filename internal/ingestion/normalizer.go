package ingestion

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/zklite"
)

// kindCodes maps remote operation type codes to canonical kinds.
var kindCodes = map[string]domain.TxKind{
	"Deposit":      domain.TxDeposit,
	"Transfer":     domain.TxTransfer,
	"Withdraw":     domain.TxWithdraw,
	"ChangePubKey": domain.TxChangePubKey,
	"ForcedExit":   domain.TxForcedExit,
	"FullExit":     domain.TxFullExit,
}

// Normalizer maps raw remote payloads into canonical transactions.
//
// It is a total function over well-formed input: every failure mode maps to
// ErrMalformedRecord, ErrUnknownKind or ErrUnknownAsset. Amounts and fees are
// parsed as arbitrary-precision decimals straight from their raw base-unit
// integer representation; floating point would accumulate rounding error
// across thousands of small transfers.
type Normalizer struct {
	assets *AssetRegistry
}

// NewNormalizer creates a normalizer resolving tokens through the registry.
func NewNormalizer(assets *AssetRegistry) *Normalizer {
	return &Normalizer{assets: assets}
}

// Normalize converts one raw payload into a canonical transaction.
func (n *Normalizer) Normalize(raw zklite.RawTransaction) (*domain.Transaction, error) {
	txHash, err := parseTxHash(raw.TxHash)
	if err != nil {
		return nil, err
	}

	kind, ok := kindCodes[raw.Op.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q (tx %s)", ErrUnknownKind, raw.Op.Type, raw.TxHash)
	}

	ts, err := parseTimestamp(raw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: tx %s: %v", ErrMalformedRecord, raw.TxHash, err)
	}

	if raw.BlockNumber < 0 {
		return nil, fmt.Errorf("%w: tx %s: negative block number %d", ErrMalformedRecord, raw.TxHash, raw.BlockNumber)
	}

	if raw.Op.From == "" {
		return nil, fmt.Errorf("%w: tx %s: missing from address", ErrMalformedRecord, raw.TxHash)
	}

	asset, err := n.assets.Resolve(raw.Op.Token)
	if err != nil {
		return nil, fmt.Errorf("tx %s: %w", raw.TxHash, err)
	}

	amount, err := parseUnits(raw.Op.Amount, asset.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: tx %s: amount: %v", ErrMalformedRecord, raw.TxHash, err)
	}

	var fee *decimal.Decimal
	if raw.Op.Fee != nil {
		f, err := parseUnits(*raw.Op.Fee, asset.Decimals)
		if err != nil {
			return nil, fmt.Errorf("%w: tx %s: fee: %v", ErrMalformedRecord, raw.TxHash, err)
		}
		fee = &f
	}

	return &domain.Transaction{
		TxHash:      txHash,
		Kind:        kind,
		Timestamp:   ts,
		BlockNumber: raw.BlockNumber,
		FromAddress: raw.Op.From,
		ToAddress:   raw.Op.To,
		Asset:       asset.Identifier,
		Amount:      amount,
		Fee:         fee,
	}, nil
}

// parseTxHash decodes a 0x-prefixed hex hash into its 32 raw bytes.
func parseTxHash(s string) ([]byte, error) {
	h, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: tx hash %q: %v", ErrMalformedRecord, s, err)
	}
	if len(h) != domain.TxHashLen {
		return nil, fmt.Errorf("%w: tx hash %q: %d bytes, want %d", ErrMalformedRecord, s, len(h), domain.TxHashLen)
	}
	return h, nil
}

// parseTimestamp converts the remote RFC3339 settlement time to Unix seconds.
func parseTimestamp(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing timestamp")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	ts := t.Unix()
	if ts < 0 {
		return 0, fmt.Errorf("timestamp %d before epoch", ts)
	}
	return ts, nil
}

// parseUnits converts a raw base-unit integer string into token units.
// An empty string means no value movement (fee-only operations) and parses
// to exact zero.
func parseUnits(raw string, decimals int32) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative value %s", raw)
	}
	return d.Shift(-decimals), nil
}
