package ingestion

import (
	"context"
	"errors"
	"testing"

	"zklite-ledger/internal/storage/memory"
	"zklite-ledger/internal/zklite"
)

// stubFeed replays a fixed record sequence over a channel and closes it.
type stubFeed struct {
	raws []zklite.RawTransaction
}

func (f *stubFeed) SubscribeAccount(_ context.Context, _ string) (<-chan zklite.RawTransaction, error) {
	ch := make(chan zklite.RawTransaction, len(f.raws))
	for _, raw := range f.raws {
		ch <- raw
	}
	close(ch)
	return ch, nil
}

func TestLiveRunner_IngestsUntilFeedCloses(t *testing.T) {
	feed := &stubFeed{raws: []zklite.RawTransaction{
		rawAt(0x01, 1000),
		rawAt(0x02, 1010),
		rawAt(0x01, 1000), // duplicate arriving again
	}}
	store := memory.NewTransactionStore()
	runner := NewLiveRunner(LiveRunnerOptions{
		Feed:       feed,
		Normalizer: NewNormalizer(DefaultAssetRegistry()),
		Store:      store,
	})

	if err := runner.Run(context.Background(), "0xfrom"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	txs, err := store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("expected 2 stored transactions, got %d", len(txs))
	}
}

func TestLiveRunner_MalformedRecordAbortsRun(t *testing.T) {
	bad := rawAt(0x02, 1010)
	bad.Op.Type = "Swap"

	feed := &stubFeed{raws: []zklite.RawTransaction{
		rawAt(0x01, 1000),
		bad,
	}}
	store := memory.NewTransactionStore()
	runner := NewLiveRunner(LiveRunnerOptions{
		Feed:       feed,
		Normalizer: NewNormalizer(DefaultAssetRegistry()),
		Store:      store,
	})

	err := runner.Run(context.Background(), "0xfrom")
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}

	// The record before the bad one is already committed.
	txs, getErr := store.GetAll(context.Background())
	if getErr != nil {
		t.Fatalf("GetAll failed: %v", getErr)
	}
	if len(txs) != 1 {
		t.Errorf("expected 1 stored transaction, got %d", len(txs))
	}
}
