package api

import (
	"encoding/json"
	"fmt"

	"tradesim/internal/domain"
)

// OrderRequest is the body of POST /api/v1/orders. Quantity is kept as a
// number literal so a fractional value becomes a rejected order rather than
// a decode failure.
type OrderRequest struct {
	Symbol   string      `json:"symbol"`
	Side     string      `json:"side"`
	Quantity json.Number `json:"quantity"`
}

// quantity returns the whole-share quantity. A missing quantity is 0 and
// fails order validation downstream.
func (r OrderRequest) quantity() (int64, error) {
	if r.Quantity == "" {
		return 0, nil
	}
	q, err := r.Quantity.Int64()
	if err != nil {
		return 0, fmt.Errorf("quantity %s is not a whole number of shares: %w", r.Quantity, domain.ErrValidation)
	}
	return q, nil
}

// EstimateJSON is an estimate plus its display trend.
type EstimateJSON struct {
	domain.Estimate
	Trend domain.Trend `json:"trend"`
}

// PredictionsJSON is the body of the prediction endpoints.
type PredictionsJSON struct {
	ModelPresent bool                    `json:"model_present"`
	Estimates    map[string]EstimateJSON `json:"estimates"`
}

func toEstimatesJSON(in map[string]domain.Estimate) map[string]EstimateJSON {
	out := make(map[string]EstimateJSON, len(in))
	for sym, e := range in {
		out[sym] = EstimateJSON{Estimate: e, Trend: e.Trend()}
	}
	return out
}
