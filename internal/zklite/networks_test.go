package zklite

import "testing"

func TestLookupNetwork(t *testing.T) {
	params, err := LookupNetwork("mainnet")
	if err != nil {
		t.Fatalf("LookupNetwork: %v", err)
	}
	if params.BaseURL == "" || params.FeedURL == "" {
		t.Error("expected mainnet endpoints to be set")
	}
	if params.SettlementAsset != "ETH" {
		t.Errorf("expected ETH settlement asset, got %s", params.SettlementAsset)
	}

	if _, err := LookupNetwork("nosuch"); err == nil {
		t.Error("expected error for unknown network")
	}
}

func TestRegisterNetwork(t *testing.T) {
	RegisterNetwork(NetworkParams{
		ID:      "private",
		Name:    "Private Deployment",
		BaseURL: "http://localhost:3030/api/v0.2",
	})

	params, err := LookupNetwork("private")
	if err != nil {
		t.Fatalf("LookupNetwork: %v", err)
	}
	if params.Name != "Private Deployment" {
		t.Errorf("unexpected name %s", params.Name)
	}
}
