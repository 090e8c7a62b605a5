package ingestion

import (
	"context"
	"fmt"
	"log"

	"zklite-ledger/internal/observability"
	"zklite-ledger/internal/storage"
)

// LiveRunner drives the websocket settlement feed through the same
// normalize-and-upsert path as windowed fetching. Records arriving live and
// again later via a window fetch collapse to one row through the idempotent
// upsert.
type LiveRunner struct {
	feed       AccountFeed
	normalizer *Normalizer
	store      storage.TransactionStore
	logger     *log.Logger
}

// LiveRunnerOptions contains configuration for creating a LiveRunner.
type LiveRunnerOptions struct {
	Feed       AccountFeed
	Normalizer *Normalizer
	Store      storage.TransactionStore
	Logger     *log.Logger
}

// NewLiveRunner creates a new live ingestion runner.
func NewLiveRunner(opts LiveRunnerOptions) *LiveRunner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &LiveRunner{
		feed:       opts.Feed,
		normalizer: opts.Normalizer,
		store:      opts.Store,
		logger:     logger,
	}
}

// Run subscribes to an address and ingests records until the context is
// cancelled or the feed closes. A malformed or unknown record aborts the run:
// silently dropping it would corrupt later balance replay.
func (r *LiveRunner) Run(ctx context.Context, address string) error {
	ch, err := r.feed.SubscribeAccount(ctx, address)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", address, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			tx, err := r.normalizer.Normalize(raw)
			if err != nil {
				observability.RecordIngestError("normalize")
				return fmt.Errorf("normalize live record for %s: %w", address, err)
			}
			inserted, err := r.store.Upsert(ctx, tx)
			if err != nil {
				observability.RecordIngestError("store")
				return fmt.Errorf("store live record for %s: %w", address, err)
			}
			if inserted {
				observability.RecordTransactionsStored(1)
			} else {
				observability.RecordDuplicatesSkipped(1)
			}
		}
	}
}
