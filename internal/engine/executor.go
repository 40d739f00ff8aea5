// Package engine runs orders against the ledger and fans out price
// predictions across symbols.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/ledger"
	"tradesim/internal/metrics"
	"tradesim/internal/store"
	"tradesim/internal/util"
)

// Quoter returns a usable quote for any symbol. *pricesource.Resilient
// satisfies it.
type Quoter interface {
	GetQuote(ctx context.Context, symbol string) domain.Quote
}

// Executor validates orders and applies them to a single owned ledger, one
// order at a time.
type Executor struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	prices  Quoter
	risk    *RiskManager
	journal store.OrderStore
	log     *slog.Logger
	now     func() time.Time
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithRiskManager enables pre-trade risk checks.
func WithRiskManager(rm *RiskManager) ExecutorOption {
	return func(e *Executor) { e.risk = rm }
}

// WithJournal records every result in the given store.
func WithJournal(s store.OrderStore) ExecutorOption {
	return func(e *Executor) { e.journal = s }
}

// WithLogger sets the executor's logger.
func WithLogger(log *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.log = log }
}

// NewExecutor creates an Executor over l, pricing orders with prices.
func NewExecutor(l *ledger.Ledger, prices Quoter, opts ...ExecutorOption) *Executor {
	e := &Executor{
		ledger: l,
		prices: prices,
		log:    util.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "executor")
	metrics.CashBalance.Set(l.Balance().InexactFloat64())
	return e
}

// Ledger returns the ledger the executor mutates.
func (e *Executor) Ledger() *ledger.Ledger { return e.ledger }

// Submit runs order through SUBMITTED → VALIDATING → APPLIED or REJECTED.
// Rejections leave the ledger unchanged and carry a RejectReason.
func (e *Executor) Submit(ctx context.Context, order domain.Order) domain.OrderResult {
	return e.run(ctx, order, func(res *domain.OrderResult) error {
		return e.execute(ctx, res)
	})
}

// Reject records order as rejected with cause without quoting it or touching
// the ledger. It serves requests that cannot be expressed as a valid Order,
// such as a fractional quantity.
func (e *Executor) Reject(ctx context.Context, order domain.Order, cause error) domain.OrderResult {
	if cause == nil {
		cause = domain.ErrValidation
	}
	return e.run(ctx, order, func(*domain.OrderResult) error { return cause })
}

func (e *Executor) run(ctx context.Context, order domain.Order, step func(*domain.OrderResult) error) domain.OrderResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.SubmittedAt.IsZero() {
		order.SubmittedAt = e.now().UTC()
	}
	order.Symbol = domain.NormalizeSymbol(order.Symbol)

	res := domain.OrderResult{
		Order:       order,
		State:       domain.OrderStateSubmitted,
		Transitions: []domain.OrderState{domain.OrderStateSubmitted},
	}
	advance(&res, domain.OrderStateValidating)

	if err := step(&res); err != nil {
		advance(&res, domain.OrderStateRejected)
		res.Reason = domain.ReasonFor(err)
		res.Message = err.Error()
	} else {
		advance(&res, domain.OrderStateApplied)
	}
	res.Balance = e.ledger.Balance()

	e.record(ctx, res)
	return res
}

func (e *Executor) execute(ctx context.Context, res *domain.OrderResult) error {
	o := res.Order
	if err := validate(o); err != nil {
		return err
	}

	q := e.prices.GetQuote(ctx, o.Symbol)
	res.Quote = &q

	if err := e.risk.CheckOrder(o, q.Price, e.ledger); err != nil {
		return err
	}

	switch o.Side {
	case domain.OrderSideBuy:
		return e.ledger.ApplyBuy(o.Symbol, o.Quantity, q.Price)
	default:
		return e.ledger.ApplySell(o.Symbol, o.Quantity, q.Price)
	}
}

func advance(res *domain.OrderResult, st domain.OrderState) {
	res.State = st
	res.Transitions = append(res.Transitions, st)
}

func validate(o domain.Order) error {
	switch {
	case o.Symbol == "":
		return fmt.Errorf("symbol is empty: %w", domain.ErrValidation)
	case o.Quantity <= 0:
		return fmt.Errorf("quantity %d must be positive: %w", o.Quantity, domain.ErrValidation)
	case !o.Side.Valid():
		return fmt.Errorf("unknown side %q: %w", o.Side, domain.ErrValidation)
	}
	return nil
}

func (e *Executor) record(ctx context.Context, res domain.OrderResult) {
	o := res.Order
	metrics.Orders.WithLabelValues(sideLabel(o.Side), string(res.State), string(res.Reason)).Inc()
	metrics.CashBalance.Set(res.Balance.InexactFloat64())

	if res.Applied() {
		e.log.Info("order applied", "id", o.ID, "symbol", o.Symbol, "side", o.Side,
			"quantity", o.Quantity, "price", res.Quote.Price, "synthetic", res.Quote.Synthetic, "balance", res.Balance)
	} else {
		e.log.Info("order rejected", "id", o.ID, "symbol", o.Symbol, "side", o.Side,
			"quantity", o.Quantity, "reason", res.Reason, "message", res.Message)
	}

	if e.journal == nil {
		return
	}
	if err := e.journal.SaveResult(ctx, res); err != nil {
		e.log.Error("failed to journal order", "id", o.ID, "error", err)
	}
}

// sideLabel keeps the metric label set bounded whatever side a client sends.
func sideLabel(s domain.OrderSide) string {
	if s.Valid() {
		return string(s)
	}
	return "invalid"
}

// Valuation quotes every holding and returns a snapshot valued at those
// prices.
func (e *Executor) Valuation(ctx context.Context) domain.AccountSnapshot {
	symbols := e.ledger.Symbols()
	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		prices[sym] = e.prices.GetQuote(ctx, sym).Price
	}
	return e.ledger.Snapshot(prices)
}
