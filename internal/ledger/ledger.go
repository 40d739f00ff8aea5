// Package ledger holds the authoritative cash balance and equity positions of
// the simulated account and enforces its invariants: cash never goes
// negative and every held position has a positive quantity.
package ledger

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
)

// Ledger tracks cash and positions in memory. All methods are safe for
// concurrent use; each mutation is applied atomically or not at all.
type Ledger struct {
	mu        sync.RWMutex
	cash      decimal.Decimal
	positions map[string]domain.Position
	order     []string // symbols in order of first acquisition
}

// New creates a Ledger funded with startingCash.
func New(startingCash decimal.Decimal) (*Ledger, error) {
	if startingCash.IsNegative() {
		return nil, fmt.Errorf("starting cash %s is negative", startingCash)
	}
	return &Ledger{
		cash:      startingCash,
		positions: make(map[string]domain.Position),
	}, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Balance returns the current cash balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

// Holdings returns a copy of all positions in order of first acquisition.
func (l *Ledger) Holdings() []domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.holdings()
}

// Position returns the position held for symbol, if any.
func (l *Ledger) Position(symbol string) (domain.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[domain.NormalizeSymbol(symbol)]
	return p, ok
}

// Symbols returns the held symbols in order of first acquisition.
func (l *Ledger) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.order)
}

// TotalValue returns cash plus the market value of every holding. Holdings
// missing from prices are valued at their average cost.
func (l *Ledger) TotalValue(prices map[string]decimal.Decimal) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalValue(prices)
}

// Snapshot returns a consistent copy of cash, holdings and total value.
func (l *Ledger) Snapshot(prices map[string]decimal.Decimal) domain.AccountSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return domain.AccountSnapshot{
		Cash:       l.cash,
		Holdings:   l.holdings(),
		TotalValue: l.totalValue(prices),
		AsOf:       time.Now().UTC(),
	}
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// ApplyBuy debits quantity × unitPrice and adds the shares to the position
// for symbol, recomputing its weighted average cost. It returns
// domain.ErrInsufficientFunds, leaving the ledger unchanged, when the cost
// exceeds the cash balance.
func (l *Ledger) ApplyBuy(symbol string, quantity int64, unitPrice decimal.Decimal) error {
	symbol, err := checkArgs(symbol, quantity, unitPrice)
	if err != nil {
		return err
	}
	qty := decimal.NewFromInt(quantity)
	cost := qty.Mul(unitPrice)

	l.mu.Lock()
	defer l.mu.Unlock()

	if cost.GreaterThan(l.cash) {
		return fmt.Errorf("buy %d %s at %s: cost %s exceeds cash %s: %w",
			quantity, symbol, unitPrice, cost, l.cash, domain.ErrInsufficientFunds)
	}

	next := domain.Position{Symbol: symbol, Quantity: quantity, AverageCost: unitPrice}
	if cur, ok := l.positions[symbol]; ok {
		total := cur.Quantity + quantity
		next.Quantity = total
		next.AverageCost = cur.CostBasis().Add(cost).Div(decimal.NewFromInt(total))
	} else {
		l.order = append(l.order, symbol)
	}

	l.positions[symbol] = next
	l.cash = l.cash.Sub(cost)
	return nil
}

// ApplySell credits quantity × unitPrice and removes the shares from the
// position for symbol. The average cost of the remaining shares is not
// changed; the position is dropped once its quantity reaches zero.
func (l *Ledger) ApplySell(symbol string, quantity int64, unitPrice decimal.Decimal) error {
	symbol, err := checkArgs(symbol, quantity, unitPrice)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.positions[symbol]
	if !ok {
		return fmt.Errorf("sell %s: %w", symbol, domain.ErrUnknownSymbol)
	}
	if cur.Quantity < quantity {
		return fmt.Errorf("sell %d %s: only %d held: %w",
			quantity, symbol, cur.Quantity, domain.ErrInsufficientShares)
	}

	proceeds := decimal.NewFromInt(quantity).Mul(unitPrice)
	if cur.Quantity == quantity {
		delete(l.positions, symbol)
		l.order = slices.DeleteFunc(l.order, func(s string) bool { return s == symbol })
	} else {
		cur.Quantity -= quantity
		l.positions[symbol] = cur
	}
	l.cash = l.cash.Add(proceeds)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers (callers hold mu)
// ---------------------------------------------------------------------------

func (l *Ledger) holdings() []domain.Position {
	out := make([]domain.Position, 0, len(l.order))
	for _, sym := range l.order {
		out = append(out, l.positions[sym])
	}
	return out
}

func (l *Ledger) totalValue(prices map[string]decimal.Decimal) decimal.Decimal {
	total := l.cash
	for _, sym := range l.order {
		p := l.positions[sym]
		price, ok := prices[sym]
		if !ok {
			price = p.AverageCost
		}
		total = total.Add(price.Mul(decimal.NewFromInt(p.Quantity)))
	}
	return total
}

func checkArgs(symbol string, quantity int64, unitPrice decimal.Decimal) (string, error) {
	symbol = domain.NormalizeSymbol(symbol)
	switch {
	case symbol == "":
		return "", fmt.Errorf("empty symbol: %w", domain.ErrValidation)
	case quantity <= 0:
		return "", fmt.Errorf("quantity %d must be positive: %w", quantity, domain.ErrValidation)
	case unitPrice.IsNegative():
		return "", fmt.Errorf("unit price %s is negative: %w", unitPrice, domain.ErrValidation)
	}
	return symbol, nil
}
