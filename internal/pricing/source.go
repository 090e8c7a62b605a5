// Package pricing provides the unit-price lookup seam for balance replay.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when a source has no price for an asset.
// Replay treats it as soft: the holding degrades to an unpriced balance
// instead of aborting the run.
var ErrPriceUnavailable = errors.New("price unavailable")

// Source provides unit prices for assets.
type Source interface {
	// PriceAt returns the unit price of an asset at the given Unix
	// timestamp. Returns ErrPriceUnavailable when the asset is unpriced.
	PriceAt(ctx context.Context, asset string, ts int64) (decimal.Decimal, error)
}

// StaticSource is a fixed price table. Used by CLIs and tests; production
// callers supply their own Source implementation.
type StaticSource struct {
	prices map[string]decimal.Decimal
}

// NewStaticSource creates a source answering from a fixed table.
func NewStaticSource(prices map[string]decimal.Decimal) *StaticSource {
	p := make(map[string]decimal.Decimal, len(prices))
	for asset, price := range prices {
		p[asset] = price
	}
	return &StaticSource{prices: p}
}

var _ Source = (*StaticSource)(nil)

// PriceAt returns the table price regardless of timestamp.
func (s *StaticSource) PriceAt(_ context.Context, asset string, _ int64) (decimal.Decimal, error) {
	price, ok := s.prices[asset]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, asset)
	}
	return price, nil
}

// ParseStatic parses "ASSET=PRICE" pairs into a StaticSource.
func ParseStatic(pairs map[string]string) (*StaticSource, error) {
	prices := make(map[string]decimal.Decimal, len(pairs))
	for asset, raw := range pairs {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", asset, err)
		}
		prices[asset] = price
	}
	return NewStaticSource(prices), nil
}
