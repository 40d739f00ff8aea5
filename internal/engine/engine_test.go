package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/ledger"
	"tradesim/internal/metrics"
	"tradesim/internal/predict"
	"tradesim/internal/pricesource"
	"tradesim/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fixedFeed quotes every symbol at one price unless listed in failing, in
// which case it returns a synthetic quote like the resilient source would.
type fixedFeed struct {
	mu      sync.Mutex
	price   decimal.Decimal
	history []decimal.Decimal
	failing map[string]bool
	quotes  int
}

func (f *fixedFeed) GetQuote(_ context.Context, symbol string) domain.Quote {
	f.mu.Lock()
	f.quotes++
	f.mu.Unlock()
	if f.failing[symbol] {
		return domain.Quote{Symbol: symbol, Price: dec("99"), Source: "synthetic", Synthetic: true}
	}
	return domain.Quote{Symbol: symbol, Price: f.price, Source: "fake"}
}

func (f *fixedFeed) GetHistory(_ context.Context, _ string, _ int) []decimal.Decimal {
	return f.history
}

// scaleModel returns its input unchanged.
type scaleModel struct{}

func (scaleModel) Predict(x float32) (float32, error) { return x, nil }
func (scaleModel) Close() error                       { return nil }

func newLedger(t *testing.T, cash string) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(dec(cash))
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	return l
}

func order(sym string, side domain.OrderSide, qty int64) domain.Order {
	return domain.Order{Symbol: sym, Side: side, Quantity: qty}
}

func wantTransitions(t *testing.T, res domain.OrderResult, final domain.OrderState) {
	t.Helper()
	want := []domain.OrderState{domain.OrderStateSubmitted, domain.OrderStateValidating, final}
	if len(res.Transitions) != len(want) {
		t.Fatalf("Transitions = %v, want %v", res.Transitions, want)
	}
	for i := range want {
		if res.Transitions[i] != want[i] {
			t.Errorf("Transitions[%d] = %s, want %s", i, res.Transitions[i], want[i])
		}
	}
	if res.State != final {
		t.Errorf("State = %s, want %s", res.State, final)
	}
}

func TestExecutorBuyThenSell(t *testing.T) {
	l := newLedger(t, "10000")
	feed := &fixedFeed{price: dec("150")}
	ex := NewExecutor(l, feed)
	ctx := context.Background()

	res := ex.Submit(ctx, order("aapl", domain.OrderSideBuy, 10))
	wantTransitions(t, res, domain.OrderStateApplied)
	if res.Order.ID == "" {
		t.Error("order ID not assigned")
	}
	if res.Order.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", res.Order.Symbol)
	}
	if !res.Balance.Equal(dec("8500")) {
		t.Errorf("Balance = %s, want 8500", res.Balance)
	}

	res = ex.Submit(ctx, order("AAPL", domain.OrderSideSell, 5))
	wantTransitions(t, res, domain.OrderStateApplied)
	if !res.Balance.Equal(dec("9250")) {
		t.Errorf("Balance = %s, want 9250", res.Balance)
	}
	pos, ok := l.Position("AAPL")
	if !ok || pos.Quantity != 5 || !pos.AverageCost.Equal(dec("150")) {
		t.Errorf("Position = %+v, want 5 @ 150", pos)
	}
}

func TestExecutorRejections(t *testing.T) {
	tests := []struct {
		name   string
		order  domain.Order
		reason domain.RejectReason
	}{
		{"empty symbol", order("  ", domain.OrderSideBuy, 1), domain.ReasonValidation},
		{"zero quantity", order("AAPL", domain.OrderSideBuy, 0), domain.ReasonValidation},
		{"negative quantity", order("AAPL", domain.OrderSideSell, -3), domain.ReasonValidation},
		{"bad side", order("AAPL", domain.OrderSide("hold"), 1), domain.ReasonValidation},
		{"insufficient funds", order("AAPL", domain.OrderSideBuy, 100), domain.ReasonInsufficientFunds},
		{"unknown symbol", order("MSFT", domain.OrderSideSell, 1), domain.ReasonUnknownSymbol},
		{"insufficient shares", order("TSLA", domain.OrderSideSell, 5), domain.ReasonInsufficientShares},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, "1000")
			if err := l.ApplyBuy("TSLA", 2, dec("100")); err != nil {
				t.Fatalf("seed ApplyBuy: %v", err)
			}
			before := l.Snapshot(nil)

			res := NewExecutor(l, &fixedFeed{price: dec("100")}).Submit(context.Background(), tt.order)
			wantTransitions(t, res, domain.OrderStateRejected)
			if res.Reason != tt.reason {
				t.Errorf("Reason = %s, want %s (%s)", res.Reason, tt.reason, res.Message)
			}

			after := l.Snapshot(nil)
			if !after.Cash.Equal(before.Cash) || len(after.Holdings) != len(before.Holdings) {
				t.Errorf("ledger changed on rejection: %+v -> %+v", before, after)
			}
			if !res.Balance.Equal(before.Cash) {
				t.Errorf("Balance = %s, want %s", res.Balance, before.Cash)
			}
		})
	}
}

func TestExecutorValidationSkipsQuote(t *testing.T) {
	feed := &fixedFeed{price: dec("100")}
	res := NewExecutor(newLedger(t, "1000"), feed).Submit(context.Background(), order("", domain.OrderSideBuy, 1))
	if res.Quote != nil || feed.quotes != 0 {
		t.Errorf("quote fetched for a malformed order: %+v, %d calls", res.Quote, feed.quotes)
	}
}

func TestExecutorInvalidSidesShareOneSeries(t *testing.T) {
	e := NewExecutor(newLedger(t, "1000"), &fixedFeed{price: dec("100")})
	e.Submit(context.Background(), order("AAPL", domain.OrderSide("warmup"), 1))
	before := testutil.CollectAndCount(metrics.Orders)

	for i := range 200 {
		res := e.Submit(context.Background(), order("AAPL", domain.OrderSide(fmt.Sprintf("junk%d", i)), 1))
		if res.Reason != domain.ReasonValidation {
			t.Fatalf("Reason = %s, want validation_error", res.Reason)
		}
	}
	if got := testutil.CollectAndCount(metrics.Orders); got != before {
		t.Errorf("order series = %d after junk sides, want %d", got, before)
	}
	if got := testutil.ToFloat64(metrics.Orders.WithLabelValues("invalid", "rejected", "validation_error")); got < 201 {
		t.Errorf("orders{side=invalid} = %v, want at least 201", got)
	}
}

func TestExecutorReject(t *testing.T) {
	l := newLedger(t, "1000")
	feed := &fixedFeed{price: dec("100")}
	cause := fmt.Errorf("quantity 1.5 is not a whole number: %w", domain.ErrValidation)

	res := NewExecutor(l, feed).Reject(context.Background(), order("AAPL", domain.OrderSideBuy, 0), cause)
	wantTransitions(t, res, domain.OrderStateRejected)
	if res.Reason != domain.ReasonValidation || res.Message != cause.Error() {
		t.Errorf("result = %+v, want validation_error with cause message", res)
	}
	if res.Order.ID == "" || res.Quote != nil || feed.quotes != 0 {
		t.Errorf("result = %+v, quotes = %d: want an ID and no quote", res, feed.quotes)
	}
	if !l.Balance().Equal(dec("1000")) {
		t.Errorf("Balance = %s, want 1000", l.Balance())
	}
}

func TestExecutorUsesSyntheticQuote(t *testing.T) {
	l := newLedger(t, "10000")
	feed := &fixedFeed{price: dec("100"), failing: map[string]bool{"AAPL": true}}
	res := NewExecutor(l, feed).Submit(context.Background(), order("AAPL", domain.OrderSideBuy, 1))
	if !res.Applied() {
		t.Fatalf("order rejected: %s", res.Message)
	}
	if res.Quote == nil || !res.Quote.Synthetic {
		t.Errorf("Quote = %+v, want synthetic", res.Quote)
	}
	if !res.Balance.Equal(dec("9901")) {
		t.Errorf("Balance = %s, want 9901", res.Balance)
	}
}

func TestExecutorRiskLimit(t *testing.T) {
	l := newLedger(t, "10000")
	ex := NewExecutor(l, &fixedFeed{price: dec("100")}, WithRiskManager(NewRiskManager(0.25)))
	ctx := context.Background()

	if res := ex.Submit(ctx, order("AAPL", domain.OrderSideBuy, 25)); !res.Applied() {
		t.Fatalf("25 shares rejected: %s", res.Message)
	}
	res := ex.Submit(ctx, order("AAPL", domain.OrderSideBuy, 1))
	if res.Reason != domain.ReasonRiskLimit {
		t.Errorf("Reason = %s, want risk_limit", res.Reason)
	}
	if res := ex.Submit(ctx, order("AAPL", domain.OrderSideSell, 25)); !res.Applied() {
		t.Errorf("sell blocked by risk manager: %s", res.Message)
	}
}

func TestRiskManagerDisabled(t *testing.T) {
	l := newLedger(t, "100")
	for _, rm := range []*RiskManager{nil, NewRiskManager(0)} {
		if rm.Enabled() {
			t.Error("Enabled() = true for a disabled manager")
		}
		if err := rm.CheckOrder(order("AAPL", domain.OrderSideBuy, 1000), dec("100"), l); err != nil {
			t.Errorf("CheckOrder: %v", err)
		}
	}
	err := NewRiskManager(0.5).CheckOrder(order("AAPL", domain.OrderSideBuy, 1), dec("60"), l)
	if !errors.Is(err, domain.ErrRiskLimit) {
		t.Errorf("CheckOrder error = %v, want ErrRiskLimit", err)
	}
}

func TestExecutorJournal(t *testing.T) {
	journal, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer journal.Close()

	ex := NewExecutor(newLedger(t, "1000"), &fixedFeed{price: dec("10")}, WithJournal(journal))
	ctx := context.Background()
	ex.Submit(ctx, order("AAPL", domain.OrderSideBuy, 3))
	ex.Submit(ctx, order("AAPL", domain.OrderSideSell, 4))

	got, err := journal.ListResults(ctx, 0)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("journal has %d entries, want 2", len(got))
	}
	if got[0].Reason != domain.ReasonInsufficientShares || !got[1].Applied() {
		t.Errorf("journal = %+v", got)
	}
}

func TestExecutorConcurrentSubmits(t *testing.T) {
	l := newLedger(t, "1000")
	ex := NewExecutor(l, &fixedFeed{price: dec("10")})
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ex.Submit(ctx, order("AAPL", domain.OrderSideBuy, 1)).Applied() {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != 100 {
		t.Errorf("applied = %d, want 100", applied)
	}
	if !l.Balance().IsZero() {
		t.Errorf("Balance = %s, want 0", l.Balance())
	}
}

func TestExecutorValuation(t *testing.T) {
	l := newLedger(t, "1000")
	if err := l.ApplyBuy("AAPL", 2, dec("100")); err != nil {
		t.Fatal(err)
	}
	snap := NewExecutor(l, &fixedFeed{price: dec("150")}).Valuation(context.Background())
	if !snap.TotalValue.Equal(dec("1100")) {
		t.Errorf("TotalValue = %s, want 1100", snap.TotalValue)
	}
}

func TestOrchestratorPartialFailure(t *testing.T) {
	feed := &fixedFeed{
		price:   dec("200"),
		history: []decimal.Decimal{dec("100"), dec("90")},
		failing: map[string]bool{"TSLA": true},
	}
	adapter := predict.NewAdapter(scaleModel{}, predict.Normalizer{InputStd: 1, OutputStd: 1}, nil)
	o := NewOrchestrator(feed, adapter, 30, nil)

	got := o.Predict(context.Background(), []string{"AAPL", "GOOGL", "TSLA"})
	if len(got) != 3 {
		t.Fatalf("Predict returned %d estimates, want 3", len(got))
	}
	for _, sym := range []string{"AAPL", "GOOGL"} {
		e := got[sym]
		// raw 90 scaled by 200/100.
		if e.Basis != domain.BasisModel || !e.PredictedPrice.Equal(dec("180")) {
			t.Errorf("%s = %s/%s, want 180/model", sym, e.PredictedPrice, e.Basis)
		}
		if e.Trend() != domain.TrendBearish {
			t.Errorf("%s trend = %s, want bearish", sym, e.Trend())
		}
	}
	tsla := got["TSLA"]
	if tsla.Basis != domain.BasisHeuristic || !tsla.PredictedPrice.Equal(dec("103.95")) {
		t.Errorf("TSLA = %s/%s, want 103.95/heuristic", tsla.PredictedPrice, tsla.Basis)
	}
}

func TestOrchestratorEmptyHistory(t *testing.T) {
	feed := &fixedFeed{price: dec("200")}
	adapter := predict.NewAdapter(scaleModel{}, predict.Normalizer{}, nil)
	got := NewOrchestrator(feed, adapter, 0, nil).Predict(context.Background(), []string{"AAPL"})
	if e := got["AAPL"]; e.Basis != domain.BasisHeuristic || !e.PredictedPrice.Equal(dec("210")) {
		t.Errorf("AAPL = %s/%s, want 210/heuristic", e.PredictedPrice, e.Basis)
	}
}

func TestOrchestratorDedupe(t *testing.T) {
	feed := &fixedFeed{price: dec("10")}
	o := NewOrchestrator(feed, predict.NewAdapter(nil, predict.Normalizer{}, nil), 30, nil)

	got := o.Predict(context.Background(), []string{"aapl", "AAPL ", "", "msft"})
	if len(got) != 2 {
		t.Errorf("Predict returned %v, want AAPL and MSFT", got)
	}
	if feed.quotes != 2 {
		t.Errorf("quotes fetched = %d, want 2", feed.quotes)
	}
	if got := o.Predict(context.Background(), nil); len(got) != 0 {
		t.Errorf("Predict(nil) = %v, want empty", got)
	}
}

func TestOrchestratorHoldingsWithResilientSource(t *testing.T) {
	l := newLedger(t, "10000")
	for _, sym := range []string{"AAPL", "TSLA"} {
		if err := l.ApplyBuy(sym, 1, dec("100")); err != nil {
			t.Fatal(err)
		}
	}
	// No provider: every quote is synthetic, every estimate heuristic.
	synth := pricesource.NewSynthetic(11)
	feed := pricesource.NewResilient(nil, synth, nil)
	o := NewOrchestrator(feed, predict.NewAdapter(scaleModel{}, predict.Normalizer{}, nil), 30, nil)

	got := o.PredictHoldings(context.Background(), l)
	if len(got) != 2 {
		t.Fatalf("PredictHoldings returned %d estimates, want 2", len(got))
	}
	for sym, e := range got {
		want := predict.Heuristic(synth.Price(sym))
		if e.Basis != domain.BasisHeuristic || !e.PredictedPrice.Equal(want) {
			t.Errorf("%s = %s/%s, want %s/heuristic", sym, e.PredictedPrice, e.Basis, want)
		}
	}
}
