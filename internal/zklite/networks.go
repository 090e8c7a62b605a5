package zklite

import "fmt"

// NetworkParams holds the per-network client configuration. Networks differ
// only by these parameters, so new deployments are registry entries rather
// than new client types.
type NetworkParams struct {
	ID              string // registry key, e.g. "mainnet"
	Name            string // human-readable name
	BaseURL         string // REST API root
	FeedURL         string // websocket live feed endpoint
	SettlementAsset string // native asset fees are denominated in
}

// networks is the built-in network registry.
var networks = map[string]NetworkParams{
	"mainnet": {
		ID:              "mainnet",
		Name:            "ZKSync Lite Mainnet",
		BaseURL:         "https://api.zksync.io/api/v0.2",
		FeedURL:         "wss://api.zksync.io/ws",
		SettlementAsset: "ETH",
	},
	"goerli": {
		ID:              "goerli",
		Name:            "ZKSync Lite Goerli",
		BaseURL:         "https://goerli-api.zksync.io/api/v0.2",
		FeedURL:         "wss://goerli-api.zksync.io/ws",
		SettlementAsset: "ETH",
	},
}

// LookupNetwork returns the parameters for a registered network ID.
func LookupNetwork(id string) (NetworkParams, error) {
	params, ok := networks[id]
	if !ok {
		return NetworkParams{}, fmt.Errorf("unknown network %q", id)
	}
	return params, nil
}

// RegisterNetwork adds or replaces a registry entry. Intended for private
// deployments and tests.
func RegisterNetwork(params NetworkParams) {
	networks[params.ID] = params
}
