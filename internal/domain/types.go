// Package domain defines the core types shared across tradesim: positions,
// orders, quotes and prediction estimates.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Valid reports whether s is one of the known sides.
func (s OrderSide) Valid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

// ParseOrderSide accepts "buy"/"sell" in any case.
func ParseOrderSide(s string) OrderSide {
	return OrderSide(strings.ToLower(strings.TrimSpace(s)))
}

// OrderState is a step of the per-order state machine.
type OrderState string

const (
	OrderStateSubmitted  OrderState = "submitted"
	OrderStateValidating OrderState = "validating"
	OrderStateApplied    OrderState = "applied"
	OrderStateRejected   OrderState = "rejected"
)

// Order is a single buy or sell request. Orders are transient and live only
// for the duration of one submission.
type Order struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Quantity    int64     `json:"quantity"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// OrderResult is the outcome of processing an Order.
type OrderResult struct {
	Order       Order           `json:"order"`
	State       OrderState      `json:"state"`
	Transitions []OrderState    `json:"transitions"`
	Reason      RejectReason    `json:"reason,omitempty"`
	Message     string          `json:"message,omitempty"`
	Quote       *Quote          `json:"quote,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
}

// Applied reports whether the order mutated the ledger.
func (r OrderResult) Applied() bool { return r.State == OrderStateApplied }

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

// Position is a held quantity of one symbol plus its average acquisition
// cost.
type Position struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// CostBasis returns Quantity × AverageCost.
func (p Position) CostBasis() decimal.Decimal {
	return p.AverageCost.Mul(decimal.NewFromInt(p.Quantity))
}

// AccountSnapshot is a point-in-time copy of the ledger, valued at the prices
// supplied by the caller.
type AccountSnapshot struct {
	Cash       decimal.Decimal `json:"cash"`
	Holdings   []Position      `json:"holdings"`
	TotalValue decimal.Decimal `json:"total_value"`
	AsOf       time.Time       `json:"as_of"`
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Quote is a single point-in-time price observation for a symbol. Synthetic
// marks quotes produced by the fallback generator instead of a live feed.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	AsOf      time.Time       `json:"as_of"`
	Source    string          `json:"source"`
	Synthetic bool            `json:"synthetic"`
}

// Bar is a daily OHLCV bar.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// ---------------------------------------------------------------------------
// Predictions
// ---------------------------------------------------------------------------

// Basis records which path produced an estimate.
type Basis string

const (
	BasisModel     Basis = "model"
	BasisHeuristic Basis = "heuristic"
)

// Trend is the display direction of an estimate.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
)

// Estimate is a predicted next price for one symbol.
type Estimate struct {
	Symbol         string          `json:"symbol"`
	PredictedPrice decimal.Decimal `json:"predicted_price"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	Basis          Basis           `json:"basis"`
}

// Trend is bullish when the prediction is above the reference price.
func (e Estimate) Trend() Trend {
	if e.PredictedPrice.GreaterThan(e.ReferencePrice) {
		return TrendBullish
	}
	return TrendBearish
}
