package ingestion

import "fmt"

// Asset describes a token known to the normalizer. Decimals shift raw
// base-unit integer amounts into token units.
type Asset struct {
	Identifier string // canonical identifier used in persisted records
	Symbol     string // remote token symbol
	Decimals   int32
}

// AssetRegistry resolves remote token symbols to known assets.
type AssetRegistry struct {
	bySymbol map[string]Asset
}

// NewAssetRegistry creates a registry from the given assets.
func NewAssetRegistry(assets ...Asset) *AssetRegistry {
	r := &AssetRegistry{bySymbol: make(map[string]Asset, len(assets))}
	for _, a := range assets {
		r.bySymbol[a.Symbol] = a
	}
	return r
}

// Register adds or replaces an asset.
func (r *AssetRegistry) Register(a Asset) {
	r.bySymbol[a.Symbol] = a
}

// Resolve returns the asset for a remote token symbol.
// Returns ErrUnknownAsset if the symbol is not registered.
func (r *AssetRegistry) Resolve(symbol string) (Asset, error) {
	a, ok := r.bySymbol[symbol]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %q", ErrUnknownAsset, symbol)
	}
	return a, nil
}

// DefaultAssetRegistry returns a registry preloaded with the tokens commonly
// listed on the settlement network.
func DefaultAssetRegistry() *AssetRegistry {
	return NewAssetRegistry(
		Asset{Identifier: "ETH", Symbol: "ETH", Decimals: 18},
		Asset{Identifier: "DAI", Symbol: "DAI", Decimals: 18},
		Asset{Identifier: "USDC", Symbol: "USDC", Decimals: 6},
		Asset{Identifier: "USDT", Symbol: "USDT", Decimals: 6},
		Asset{Identifier: "WBTC", Symbol: "WBTC", Decimals: 8},
		Asset{Identifier: "LINK", Symbol: "LINK", Decimals: 18},
		Asset{Identifier: "UNI", Symbol: "UNI", Decimals: 18},
		Asset{Identifier: "MANA", Symbol: "MANA", Decimals: 18},
		Asset{Identifier: "SNX", Symbol: "SNX", Decimals: 18},
		Asset{Identifier: "LRC", Symbol: "LRC", Decimals: 18},
		Asset{Identifier: "FRAX", Symbol: "FRAX", Decimals: 18},
		Asset{Identifier: "STORJ", Symbol: "STORJ", Decimals: 8},
	)
}
