package replay

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/observability"
	"zklite-ledger/internal/pricing"
	"zklite-ledger/internal/storage"
)

// Engine reconstructs point-in-time balances by folding the persisted ledger
// in deterministic order. Replay is pure over (ledger contents, price source,
// requested addresses): all collaborators are constructor-injected, and the
// engine only reads.
type Engine struct {
	store  storage.TransactionStore
	prices pricing.Source
	now    func() time.Time
	logger *log.Logger
}

// EngineOptions contains configuration for creating an Engine.
type EngineOptions struct {
	Store  storage.TransactionStore
	Prices pricing.Source
	Now    func() time.Time // evaluation clock, defaults to time.Now
	Logger *log.Logger
}

// NewEngine creates a new balance replay engine.
func NewEngine(opts EngineOptions) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:  opts.Store,
		prices: opts.Prices,
		now:    now,
		logger: logger,
	}
}

// ComputeBalances replays the full ledger and returns the current per-asset
// holdings of the requested addresses, priced at a single evaluation instant.
//
// The full ledger is read and filtered per record rather than per query: a
// transfer whose counterparty is outside the requested set must still apply
// to the requested side. Pairs that net to exactly zero are omitted. A failed
// price lookup degrades that holding to a nil unit price instead of aborting.
func (e *Engine) ComputeBalances(ctx context.Context, addresses []string) (map[string]map[string]domain.Balance, error) {
	start := time.Now()

	result, err := e.computeBalances(ctx, addresses)
	if err != nil {
		observability.RecordReplayRun("error", time.Since(start).Seconds())
		return nil, err
	}
	observability.RecordReplayRun("success", time.Since(start).Seconds())
	return result, nil
}

func (e *Engine) computeBalances(ctx context.Context, addresses []string) (map[string]map[string]domain.Balance, error) {
	txs, err := e.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	// Stores already return replay order; sorting again makes determinism
	// independent of the store implementation.
	SortTransactions(txs)

	requested := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		requested[address] = struct{}{}
	}

	// Exact decimal accumulation per (address, asset). Effects on
	// non-requested counterparties are discarded at accumulation time.
	quantities := make(map[string]map[string]decimal.Decimal, len(addresses))
	for _, tx := range txs {
		if err := applyEffects(quantities, requested, tx); err != nil {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	evalTS := e.now().Unix()
	result := make(map[string]map[string]domain.Balance, len(quantities))
	for address, assets := range quantities {
		for asset, quantity := range assets {
			if quantity.IsZero() {
				continue
			}
			balance := domain.Balance{Quantity: quantity}

			price, err := e.prices.PriceAt(ctx, asset, evalTS)
			if err != nil {
				// Soft failure: the holding is reported unpriced and the
				// caller decides how to render it.
				observability.RecordPriceLookupFailure()
				e.logger.Printf("price lookup failed for %s: %v", asset, err)
			} else {
				balance.UnitPrice = &price
			}

			if result[address] == nil {
				result[address] = make(map[string]domain.Balance)
			}
			result[address][asset] = balance
		}
	}
	return result, nil
}

// applyEffects applies one record's kind-specific balance effects.
func applyEffects(quantities map[string]map[string]decimal.Decimal, requested map[string]struct{}, tx *domain.Transaction) error {
	switch tx.Kind {
	case domain.TxDeposit:
		credit(quantities, requested, tx.ToAddress, tx.Asset, tx.Amount)

	case domain.TxTransfer:
		debit(quantities, requested, tx.FromAddress, tx.Asset, tx.Amount)
		debitFee(quantities, requested, tx)
		credit(quantities, requested, tx.ToAddress, tx.Asset, tx.Amount)

	case domain.TxWithdraw, domain.TxForcedExit, domain.TxFullExit:
		// Withdrawal to self is not a no-op: the debit is the sole effect
		// even when to_address equals from_address.
		debit(quantities, requested, tx.FromAddress, tx.Asset, tx.Amount)
		debitFee(quantities, requested, tx)

	case domain.TxChangePubKey:
		// Fee-only record; amount is zero and ignored.
		debitFee(quantities, requested, tx)

	default:
		return fmt.Errorf("%w: %q (tx %x)", ErrUnhandledKind, tx.Kind, tx.TxHash)
	}
	return nil
}

func credit(quantities map[string]map[string]decimal.Decimal, requested map[string]struct{}, address, asset string, amount decimal.Decimal) {
	if _, ok := requested[address]; !ok {
		return
	}
	if quantities[address] == nil {
		quantities[address] = make(map[string]decimal.Decimal)
	}
	quantities[address][asset] = quantities[address][asset].Add(amount)
}

func debit(quantities map[string]map[string]decimal.Decimal, requested map[string]struct{}, address, asset string, amount decimal.Decimal) {
	if _, ok := requested[address]; !ok {
		return
	}
	if quantities[address] == nil {
		quantities[address] = make(map[string]decimal.Decimal)
	}
	quantities[address][asset] = quantities[address][asset].Sub(amount)
}

// debitFee applies the sender-side fee debit when a fee was charged. Fees are
// always denominated in the record's asset on this network.
func debitFee(quantities map[string]map[string]decimal.Decimal, requested map[string]struct{}, tx *domain.Transaction) {
	if tx.Fee == nil {
		return
	}
	debit(quantities, requested, tx.FromAddress, tx.Asset, *tx.Fee)
}

// Snapshot converts one replay result into archive rows, stamped with runAt.
func Snapshot(runAt int64, balances map[string]map[string]domain.Balance) []*domain.BalanceSnapshot {
	var snaps []*domain.BalanceSnapshot
	for address, assets := range balances {
		for asset, balance := range assets {
			snap := &domain.BalanceSnapshot{
				RunAt:    runAt,
				Address:  address,
				Asset:    asset,
				Quantity: balance.Quantity,
			}
			if balance.UnitPrice != nil {
				price := *balance.UnitPrice
				snap.UnitPrice = &price
			}
			snaps = append(snaps, snap)
		}
	}
	return snaps
}
