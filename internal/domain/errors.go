package domain

import "errors"

// Errors surfaced to callers as order rejection reasons.
var (
	ErrValidation         = errors.New("invalid order")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrUnknownSymbol      = errors.New("unknown symbol")
	ErrRiskLimit          = errors.New("risk limit exceeded")
)

// Errors recovered locally by the price source and prediction adapter. They
// never cross those package boundaries.
var (
	ErrPriceUnavailable      = errors.New("price unavailable")
	ErrPredictionUnavailable = errors.New("prediction unavailable")
)

// RejectReason is the stable code attached to a rejected order.
type RejectReason string

const (
	ReasonValidation         RejectReason = "validation_error"
	ReasonInsufficientFunds  RejectReason = "insufficient_funds"
	ReasonInsufficientShares RejectReason = "insufficient_shares"
	ReasonUnknownSymbol      RejectReason = "unknown_symbol"
	ReasonRiskLimit          RejectReason = "risk_limit"
	ReasonInternal           RejectReason = "internal_error"
)

// ReasonFor maps an error returned by the ledger or executor to its code.
func ReasonFor(err error) RejectReason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return ReasonValidation
	case errors.Is(err, ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, ErrInsufficientShares):
		return ReasonInsufficientShares
	case errors.Is(err, ErrUnknownSymbol):
		return ReasonUnknownSymbol
	case errors.Is(err, ErrRiskLimit):
		return ReasonRiskLimit
	default:
		return ReasonInternal
	}
}
