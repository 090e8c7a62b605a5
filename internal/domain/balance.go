package domain

import "github.com/shopspring/decimal"

// Balance is a point-in-time holding of one asset by one address.
// Quantity is the exact decimal sum of all applicable ledger effects;
// UnitPrice is nil when pricing was unavailable at evaluation time.
type Balance struct {
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// Value returns Quantity * UnitPrice, or nil when the balance is unpriced.
func (b Balance) Value() *decimal.Decimal {
	if b.UnitPrice == nil {
		return nil
	}
	v := b.Quantity.Mul(*b.UnitPrice)
	return &v
}

// BalanceSnapshot is one archived (address, asset) holding produced by a
// replay run. Corresponds to the balance_snapshots table.
type BalanceSnapshot struct {
	RunAt     int64 // Unix timestamp of the replay run, seconds
	Address   string
	Asset     string
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}
