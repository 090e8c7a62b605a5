package replay

import "errors"

// Replay errors.
var (
	// ErrInvalidOrdering is returned when records are not in deterministic
	// replay order.
	ErrInvalidOrdering = errors.New("records are not in deterministic order")

	// ErrUnhandledKind is returned when the ledger holds a kind the engine
	// has no effect rule for. Failing loudly beats silently wrong balances.
	ErrUnhandledKind = errors.New("no balance effect rule for transaction kind")
)
