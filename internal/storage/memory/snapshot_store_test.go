package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/storage"
)

func snap(runAt int64, address, asset, quantity string) *domain.BalanceSnapshot {
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		panic(err)
	}
	return &domain.BalanceSnapshot{
		RunAt:    runAt,
		Address:  address,
		Asset:    asset,
		Quantity: q,
	}
}

func TestSnapshotStore_InsertBulkAndGetByAddress(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	price := decimal.NewFromInt(2000)
	priced := snap(100, "0xalice", "ETH", "4.85")
	priced.UnitPrice = &price

	err := store.InsertBulk(ctx, []*domain.BalanceSnapshot{
		priced,
		snap(100, "0xalice", "DAI", "120"),
		snap(100, "0xbob", "ETH", "3"),
		snap(50, "0xalice", "ETH", "10"),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	snaps, err := store.GetByAddress(ctx, "0xalice")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}

	// Ordered by run_at, then asset.
	if snaps[0].RunAt != 50 {
		t.Errorf("expected earliest run first, got run_at %d", snaps[0].RunAt)
	}
	if snaps[1].Asset != "DAI" || snaps[2].Asset != "ETH" {
		t.Errorf("expected DAI,ETH within run 100, got %s,%s", snaps[1].Asset, snaps[2].Asset)
	}
	if snaps[2].UnitPrice == nil || !snaps[2].UnitPrice.Equal(price) {
		t.Errorf("expected unit price 2000, got %v", snaps[2].UnitPrice)
	}
}

// A duplicate key rejects the whole batch with nothing written.
func TestSnapshotStore_DuplicateRejectsBatch(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.BalanceSnapshot{
		snap(100, "0xalice", "ETH", "1"),
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.BalanceSnapshot{
		snap(100, "0xalice", "DAI", "2"),
		snap(100, "0xalice", "ETH", "3"), // collides with seeded row
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	snaps, err := store.GetByAddress(ctx, "0xalice")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("expected rejected batch to write nothing, got %d rows", len(snaps))
	}
}

func TestSnapshotStore_IntraBatchDuplicate(t *testing.T) {
	store := NewSnapshotStore()

	err := store.InsertBulk(context.Background(), []*domain.BalanceSnapshot{
		snap(100, "0xalice", "ETH", "1"),
		snap(100, "0xalice", "ETH", "2"),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestSnapshotStore_InvalidInput(t *testing.T) {
	store := NewSnapshotStore()

	err := store.InsertBulk(context.Background(), []*domain.BalanceSnapshot{
		snap(100, "", "ETH", "1"),
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
