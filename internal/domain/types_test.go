package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTypesExist(t *testing.T) {
	// Verify Order can be instantiated with zero values.
	order := Order{}
	if order.ID != "" || order.Symbol != "" {
		t.Error("expected empty ID/Symbol for zero-value Order")
	}
	if order.Side != "" {
		t.Error("expected empty Side for zero-value Order")
	}
	if order.Quantity != 0 {
		t.Error("expected zero Quantity for zero-value Order")
	}
	if !order.SubmittedAt.IsZero() {
		t.Error("expected zero timestamp for zero-value Order")
	}

	// Verify enum constants are defined correctly.
	if OrderSideBuy != "buy" || OrderSideSell != "sell" {
		t.Errorf("order sides = %q/%q, want buy/sell", OrderSideBuy, OrderSideSell)
	}
	if BasisModel != "model" || BasisHeuristic != "heuristic" {
		t.Error("Basis constants have unexpected values")
	}

	pos := Position{
		Symbol:      "AAPL",
		Quantity:    10,
		AverageCost: decimal.NewFromInt(150),
	}
	if got := pos.CostBasis(); !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("pos.CostBasis() = %s, want 1500", got)
	}
}

func TestParseOrderSide(t *testing.T) {
	if got := ParseOrderSide(" BUY "); got != OrderSideBuy {
		t.Errorf("ParseOrderSide(BUY) = %q, want %q", got, OrderSideBuy)
	}
	if got := ParseOrderSide("Sell"); got != OrderSideSell {
		t.Errorf("ParseOrderSide(Sell) = %q, want %q", got, OrderSideSell)
	}
	if ParseOrderSide("short").Valid() {
		t.Error("ParseOrderSide(short).Valid() = true, want false")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Errorf("NormalizeSymbol = %q, want %q", got, "AAPL")
	}
}

func TestEstimateTrend(t *testing.T) {
	up := Estimate{PredictedPrice: decimal.NewFromInt(105), ReferencePrice: decimal.NewFromInt(100)}
	if up.Trend() != TrendBullish {
		t.Errorf("Trend() = %q, want %q", up.Trend(), TrendBullish)
	}
	flat := Estimate{PredictedPrice: decimal.NewFromInt(100), ReferencePrice: decimal.NewFromInt(100)}
	if flat.Trend() != TrendBearish {
		t.Errorf("Trend() = %q, want %q", flat.Trend(), TrendBearish)
	}
}

func TestReasonFor(t *testing.T) {
	cases := []struct {
		err  error
		want RejectReason
	}{
		{nil, ""},
		{ErrValidation, ReasonValidation},
		{fmt.Errorf("buy: %w", ErrInsufficientFunds), ReasonInsufficientFunds},
		{ErrInsufficientShares, ReasonInsufficientShares},
		{ErrUnknownSymbol, ReasonUnknownSymbol},
		{ErrRiskLimit, ReasonRiskLimit},
		{errors.New("boom"), ReasonInternal},
	}
	for _, tc := range cases {
		if got := ReasonFor(tc.err); got != tc.want {
			t.Errorf("ReasonFor(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
