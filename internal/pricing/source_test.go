package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStaticSource_PriceAt(t *testing.T) {
	source := NewStaticSource(map[string]decimal.Decimal{
		"ETH": decimal.NewFromInt(2000),
	})

	price, err := source.PriceAt(context.Background(), "ETH", 1700000000)
	if err != nil {
		t.Fatalf("PriceAt: %v", err)
	}
	if price.String() != "2000" {
		t.Errorf("expected 2000, got %s", price)
	}

	_, err = source.PriceAt(context.Background(), "DAI", 1700000000)
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestParseStatic(t *testing.T) {
	source, err := ParseStatic(map[string]string{
		"ETH": "3500.25",
		"DAI": "1",
	})
	if err != nil {
		t.Fatalf("ParseStatic: %v", err)
	}

	price, err := source.PriceAt(context.Background(), "ETH", 0)
	if err != nil {
		t.Fatalf("PriceAt: %v", err)
	}
	if price.String() != "3500.25" {
		t.Errorf("expected 3500.25, got %s", price)
	}
}

func TestParseStatic_BadPrice(t *testing.T) {
	if _, err := ParseStatic(map[string]string{"ETH": "cheap"}); err == nil {
		t.Error("expected parse error")
	}
}
