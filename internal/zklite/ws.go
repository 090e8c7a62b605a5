package zklite

import "context"

// FeedClient streams newly settled raw transactions for subscribed addresses.
type FeedClient interface {
	// SubscribeAccount subscribes to an address's settlement feed. The
	// returned channel is closed when the client shuts down.
	SubscribeAccount(ctx context.Context, address string) (<-chan RawTransaction, error)

	// Close closes the feed connection and all subscription channels.
	Close() error
}
