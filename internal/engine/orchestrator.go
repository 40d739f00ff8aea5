package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/ledger"
	"tradesim/internal/metrics"
	"tradesim/internal/util"
)

// PriceFeed supplies quotes and histories that never fail.
// *pricesource.Resilient satisfies it.
type PriceFeed interface {
	Quoter
	GetHistory(ctx context.Context, symbol string, maxPoints int) []decimal.Decimal
}

// Predictor turns a reference price and a history into an estimate.
// *predict.Adapter satisfies it.
type Predictor interface {
	PredictNext(ref decimal.Decimal, history []decimal.Decimal) (decimal.Decimal, domain.Basis)
}

// Orchestrator computes estimates for many symbols concurrently. Each symbol
// resolves independently, so one failing feed never affects the others.
type Orchestrator struct {
	prices        PriceFeed
	predictor     Predictor
	historyPoints int
	log           *slog.Logger
}

// NewOrchestrator creates an Orchestrator. historyPoints <= 0 uses 30.
func NewOrchestrator(prices PriceFeed, predictor Predictor, historyPoints int, log *slog.Logger) *Orchestrator {
	if historyPoints <= 0 {
		historyPoints = 30
	}
	if log == nil {
		log = util.Discard()
	}
	return &Orchestrator{
		prices:        prices,
		predictor:     predictor,
		historyPoints: historyPoints,
		log:           log.With("component", "orchestrator"),
	}
}

// Predict returns one estimate per distinct, non-empty symbol. It returns
// once every symbol has resolved.
func (o *Orchestrator) Predict(ctx context.Context, symbols []string) map[string]domain.Estimate {
	unique := dedupe(symbols)
	results := make(map[string]domain.Estimate, len(unique))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, sym := range unique {
		wg.Add(1)
		go func() {
			defer wg.Done()
			est := o.estimate(ctx, sym)
			mu.Lock()
			results[sym] = est
			mu.Unlock()
		}()
	}
	wg.Wait()

	o.log.Debug("predictions resolved", "symbols", len(results))
	return results
}

// ModelPresent reports whether the predictor has a model loaded.
func (o *Orchestrator) ModelPresent() bool {
	mp, ok := o.predictor.(interface{ ModelPresent() bool })
	return ok && mp.ModelPresent()
}

// PredictHoldings estimates every symbol currently held in l.
func (o *Orchestrator) PredictHoldings(ctx context.Context, l *ledger.Ledger) map[string]domain.Estimate {
	return o.Predict(ctx, l.Symbols())
}

// estimate runs quote → history → predictor for one symbol. A synthetic
// quote skips the history fetch and resolves to the heuristic.
func (o *Orchestrator) estimate(ctx context.Context, symbol string) domain.Estimate {
	q := o.prices.GetQuote(ctx, symbol)

	var history []decimal.Decimal
	if !q.Synthetic {
		history = o.prices.GetHistory(ctx, symbol, o.historyPoints)
	}
	p, basis := o.predictor.PredictNext(q.Price, history)
	metrics.Predictions.WithLabelValues(string(basis)).Inc()

	return domain.Estimate{
		Symbol:         symbol,
		PredictedPrice: p,
		ReferencePrice: q.Price,
		Basis:          basis,
	}
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = domain.NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
