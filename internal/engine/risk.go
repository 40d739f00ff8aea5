package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/ledger"
)

// RiskManager enforces pre-trade position sizing.
type RiskManager struct {
	maxPositionPct decimal.Decimal
}

// NewRiskManager creates a RiskManager.
//
//   - maxPositionPct: maximum fraction of book equity allowed in a single
//     position after the order fills (e.g. 0.25 for 25%). 0 disables the
//     check.
//
// Book equity is cash plus every holding valued at its average cost.
func NewRiskManager(maxPositionPct float64) *RiskManager {
	return &RiskManager{maxPositionPct: decimal.NewFromFloat(maxPositionPct)}
}

// Enabled reports whether a limit is configured.
func (rm *RiskManager) Enabled() bool {
	return rm != nil && rm.maxPositionPct.IsPositive()
}

// CheckOrder returns an error wrapping domain.ErrRiskLimit when filling order
// at price would push the position above the limit. Sells always pass.
func (rm *RiskManager) CheckOrder(order domain.Order, price decimal.Decimal, l *ledger.Ledger) error {
	if !rm.Enabled() || order.Side != domain.OrderSideBuy {
		return nil
	}

	equity := l.TotalValue(nil)
	var held int64
	if pos, ok := l.Position(order.Symbol); ok {
		held = pos.Quantity
	}
	exposure := price.Mul(decimal.NewFromInt(held + order.Quantity))
	limit := equity.Mul(rm.maxPositionPct)
	if exposure.GreaterThan(limit) {
		return fmt.Errorf("%s exposure %s exceeds %s of equity %s: %w",
			order.Symbol, exposure.StringFixed(2), rm.maxPositionPct, equity.StringFixed(2), domain.ErrRiskLimit)
	}
	return nil
}
