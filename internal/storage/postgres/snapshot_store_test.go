package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/storage"
)

func testSnapshot(t *testing.T, runAt int64, address, asset, quantity string) *domain.BalanceSnapshot {
	t.Helper()
	return &domain.BalanceSnapshot{
		RunAt:    runAt,
		Address:  address,
		Asset:    asset,
		Quantity: mustDecimal(t, quantity),
	}
}

func TestSnapshotStore_InsertBulkAndGetByAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	price := mustDecimal(t, "2000")
	priced := testSnapshot(t, 100, "0xalice", "ETH", "4.85")
	priced.UnitPrice = &price

	err := store.InsertBulk(ctx, []*domain.BalanceSnapshot{
		priced,
		testSnapshot(t, 100, "0xalice", "DAI", "120"),
		testSnapshot(t, 100, "0xbob", "ETH", "3"),
		testSnapshot(t, 50, "0xalice", "ETH", "10"),
	})
	require.NoError(t, err)

	snaps, err := store.GetByAddress(ctx, "0xalice")
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	// Ordered by run_at, then asset.
	assert.Equal(t, int64(50), snaps[0].RunAt)
	assert.Equal(t, "DAI", snaps[1].Asset)
	assert.Equal(t, "ETH", snaps[2].Asset)

	assert.Nil(t, snaps[1].UnitPrice, "unpriced snapshot reads back nil")
	require.NotNil(t, snaps[2].UnitPrice)
	assert.True(t, snaps[2].UnitPrice.Equal(price))
	assert.True(t, snaps[2].Quantity.Equal(mustDecimal(t, "4.85")), "quantity must round-trip exactly")
}

// Re-archiving the same run must fail whole, leaving the first archive
// intact.
func TestSnapshotStore_DuplicateRunRejected(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	err := store.InsertBulk(ctx, []*domain.BalanceSnapshot{
		testSnapshot(t, 100, "0xalice", "ETH", "1"),
	})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.BalanceSnapshot{
		testSnapshot(t, 100, "0xalice", "DAI", "2"),
		testSnapshot(t, 100, "0xalice", "ETH", "3"),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	snaps, err := store.GetByAddress(ctx, "0xalice")
	require.NoError(t, err)
	require.Len(t, snaps, 1, "rejected batch writes nothing")
	assert.True(t, snaps[0].Quantity.Equal(mustDecimal(t, "1")))
}

func TestSnapshotStore_GetByAddressEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)

	snaps, err := store.GetByAddress(context.Background(), "0xnobody")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
