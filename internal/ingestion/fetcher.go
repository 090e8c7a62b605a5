package ingestion

import (
	"context"
	"fmt"
	"log"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/observability"
	"zklite-ledger/internal/storage"
)

// DefaultPageSize is the page size requested from the remote source.
const DefaultPageSize = 100

// Fetcher orchestrates windowed ingestion: it drives remote pages through the
// normalizer into the store. Dedupe is the store's concern (idempotent
// upsert); page atomicity is the fetcher's (a page is normalized in full
// before any row is written).
//
// Fetchers for different addresses may run concurrently: their records are
// disjoint and the store's upsert is the only shared-mutation point.
type Fetcher struct {
	source     PageSource
	normalizer *Normalizer
	store      storage.TransactionStore
	pageSize   int
	logger     *log.Logger
}

// FetcherOptions contains configuration for creating a Fetcher.
type FetcherOptions struct {
	Source     PageSource
	Normalizer *Normalizer
	Store      storage.TransactionStore
	PageSize   int
	Logger     *log.Logger
}

// NewFetcher creates a new window fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		source:     opts.Source,
		normalizer: opts.Normalizer,
		store:      opts.Store,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// FetchTransactions ingests all of an address's transactions settled within
// [startTS, endTS]. The window advances by the last page's maximum timestamp,
// so resuming after a crash re-fetches at most one already-seen page, which
// the idempotent upsert absorbs.
//
// A single bad record aborts its whole page with zero rows persisted from it;
// previously committed pages stay intact and the call is safely retryable.
func (f *Fetcher) FetchTransactions(ctx context.Context, address string, startTS, endTS int64) error {
	cursor := startTS

	for {
		raws, err := f.source.AccountTransactions(ctx, address, cursor, f.pageSize)
		if err != nil {
			observability.RecordIngestError("fetch")
			return fmt.Errorf("fetch page for %s from %d: %w", address, cursor, err)
		}
		observability.RecordPageFetched()

		if len(raws) == 0 {
			return nil
		}

		// Normalize the full page before any write: one malformed or
		// unknown record drops the page atomically.
		page := make([]*domain.Transaction, 0, len(raws))
		maxTS := cursor
		pastEnd := false
		for _, raw := range raws {
			tx, err := f.normalizer.Normalize(raw)
			if err != nil {
				observability.RecordIngestError("normalize")
				return fmt.Errorf("normalize page for %s: %w", address, err)
			}
			if tx.Timestamp > maxTS {
				maxTS = tx.Timestamp
			}
			if tx.Timestamp > endTS {
				pastEnd = true
				continue
			}
			page = append(page, tx)
		}

		inserted, err := f.store.UpsertBatch(ctx, page)
		if err != nil {
			observability.RecordIngestError("store")
			return fmt.Errorf("store page for %s: %w", address, err)
		}
		observability.RecordTransactionsStored(inserted)
		observability.RecordDuplicatesSkipped(len(page) - inserted)

		f.logger.Printf("ingested page for %s: %d records, %d new, window cursor %d",
			address, len(page), inserted, maxTS)

		if pastEnd || len(raws) < f.pageSize {
			return nil
		}

		if maxTS == cursor {
			// A full page sharing one timestamp cannot advance the
			// boundary; step past it. More than pageSize records settling
			// within one second needs a larger page size.
			cursor = maxTS + 1
		} else {
			cursor = maxTS
		}
	}
}
