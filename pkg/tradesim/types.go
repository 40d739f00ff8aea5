package tradesim

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a held quantity and its average cost.
type Position struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// Account is the account snapshot valued at live quotes.
type Account struct {
	Cash       decimal.Decimal `json:"cash"`
	Holdings   []Position      `json:"holdings"`
	TotalValue decimal.Decimal `json:"total_value"`
	AsOf       time.Time       `json:"as_of"`
}

// Quote is a price observation. Synthetic quotes come from the server's
// fallback generator.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	AsOf      time.Time       `json:"as_of"`
	Source    string          `json:"source"`
	Synthetic bool            `json:"synthetic"`
}

// Order is the order echoed back in a result.
type Order struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Quantity    int64     `json:"quantity"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// OrderResult is the outcome of an order.
type OrderResult struct {
	Order       Order           `json:"order"`
	State       string          `json:"state"`
	Transitions []string        `json:"transitions"`
	Reason      string          `json:"reason,omitempty"`
	Message     string          `json:"message,omitempty"`
	Quote       *Quote          `json:"quote,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
}

// Applied reports whether the order changed the account.
func (r OrderResult) Applied() bool { return r.State == "applied" }

// Estimate is a predicted next price.
type Estimate struct {
	Symbol         string          `json:"symbol"`
	PredictedPrice decimal.Decimal `json:"predicted_price"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	Basis          string          `json:"basis"`
	Trend          string          `json:"trend"`
}

// Predictions is a batch of estimates keyed by symbol.
type Predictions struct {
	ModelPresent bool                `json:"model_present"`
	Estimates    map[string]Estimate `json:"estimates"`
}
