// Package pricesource fetches quotes and daily closing prices from external
// feeds and degrades to synthetic values when a feed is unavailable.
package pricesource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/metrics"
	"tradesim/internal/util"
)

// DefaultHistoryPoints is the number of daily closes requested when the
// caller does not specify one.
const DefaultHistoryPoints = 30

// Source is a raw price feed. Implementations return an error wrapping
// domain.ErrPriceUnavailable when the feed fails, is rate limited or returns
// a malformed response.
type Source interface {
	// Name returns the provider identifier (e.g. "alphavantage").
	Name() string

	// Quote returns the latest price for symbol.
	Quote(ctx context.Context, symbol string) (domain.Quote, error)

	// History returns up to maxPoints daily closes, most recent first.
	History(ctx context.Context, symbol string, maxPoints int) ([]decimal.Decimal, error)
}

// Resilient wraps a Source so that quotes and histories never fail: quotes
// fall back to a Synthetic generator and histories to an empty series.
type Resilient struct {
	src      Source
	fallback *Synthetic
	log      *slog.Logger
}

// NewResilient wraps src. A nil src always serves synthetic quotes.
func NewResilient(src Source, fallback *Synthetic, log *slog.Logger) *Resilient {
	if fallback == nil {
		fallback = NewSynthetic(0)
	}
	if log == nil {
		log = util.Discard()
	}
	name := "none"
	if src != nil {
		name = src.Name()
	}
	return &Resilient{
		src:      src,
		fallback: fallback,
		log:      log.With("component", "pricesource", "provider", name),
	}
}

// GetQuote returns the live quote for symbol, or a synthetic quote tagged
// Synthetic when the feed cannot provide a usable price.
func (r *Resilient) GetQuote(ctx context.Context, symbol string) domain.Quote {
	symbol = domain.NormalizeSymbol(symbol)
	q, err := r.liveQuote(ctx, symbol)
	if err == nil {
		return q
	}

	r.log.Warn("quote unavailable, using synthetic price", "symbol", symbol, "error", err)
	metrics.QuoteFallbacks.WithLabelValues(r.providerName()).Inc()
	return r.fallback.Quote(symbol)
}

// GetHistory returns up to maxPoints daily closes, most recent first. A
// failed fetch yields an empty (non-nil) slice. maxPoints <= 0 selects
// DefaultHistoryPoints.
func (r *Resilient) GetHistory(ctx context.Context, symbol string, maxPoints int) []decimal.Decimal {
	if maxPoints <= 0 {
		maxPoints = DefaultHistoryPoints
	}
	symbol = domain.NormalizeSymbol(symbol)
	if r.src == nil {
		return []decimal.Decimal{}
	}

	closes, err := r.src.History(ctx, symbol, maxPoints)
	if err != nil {
		r.log.Warn("history unavailable", "symbol", symbol, "error", err)
		metrics.HistoryFallbacks.WithLabelValues(r.providerName()).Inc()
		return []decimal.Decimal{}
	}

	out := make([]decimal.Decimal, 0, min(len(closes), maxPoints))
	for _, c := range closes {
		if !c.IsPositive() {
			continue
		}
		out = append(out, c)
		if len(out) == maxPoints {
			break
		}
	}
	return out
}

func (r *Resilient) liveQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	if r.src == nil {
		return domain.Quote{}, fmt.Errorf("no provider configured: %w", domain.ErrPriceUnavailable)
	}
	q, err := r.src.Quote(ctx, symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	if !q.Price.IsPositive() {
		return domain.Quote{}, fmt.Errorf("non-positive price %s: %w", q.Price, domain.ErrPriceUnavailable)
	}
	q.Symbol = symbol
	q.Synthetic = false
	if q.Source == "" {
		q.Source = r.src.Name()
	}
	return q, nil
}

func (r *Resilient) providerName() string {
	if r.src == nil {
		return "none"
	}
	return r.src.Name()
}
