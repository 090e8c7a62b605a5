package ingestion

import (
	"context"

	"zklite-ledger/internal/zklite"
)

// PageSource provides raw transaction pages from the remote ledger.
// *zklite.HTTPClient satisfies this; tests substitute fakes.
type PageSource interface {
	// AccountTransactions returns one ascending-time page for an address:
	// records with settlement time >= fromTS, at most limit entries, empty
	// when no further pages exist. Record order within equal timestamps is
	// not guaranteed.
	AccountTransactions(ctx context.Context, address string, fromTS int64, limit int) ([]zklite.RawTransaction, error)
}

// AccountFeed streams newly settled raw transactions for an address.
// *zklite.WSFeed satisfies this.
type AccountFeed interface {
	SubscribeAccount(ctx context.Context, address string) (<-chan zklite.RawTransaction, error)
}
