package pricesource

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/store"
)

// Offline serves prices from locally stored daily bars. The quote is the
// most recent stored close.
type Offline struct {
	bars store.BarStore
	now  func() time.Time
}

// NewOffline creates a source over the given bar store.
func NewOffline(bars store.BarStore) *Offline {
	return &Offline{bars: bars, now: time.Now}
}

// Name implements Source.
func (o *Offline) Name() string { return "parquet" }

// Quote implements Source.
func (o *Offline) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	closes, err := o.History(ctx, symbol, 1)
	if err != nil {
		return domain.Quote{}, err
	}
	if len(closes) == 0 {
		return domain.Quote{}, fmt.Errorf("parquet %s: no stored bars: %w", symbol, domain.ErrPriceUnavailable)
	}
	return domain.Quote{
		Symbol: symbol,
		Price:  closes[0],
		AsOf:   o.now().UTC(),
		Source: o.Name(),
	}, nil
}

// History implements Source.
func (o *Offline) History(ctx context.Context, symbol string, maxPoints int) ([]decimal.Decimal, error) {
	raw, err := o.bars.LatestCloses(ctx, symbol, maxPoints)
	if err != nil {
		return nil, fmt.Errorf("parquet %s: %v: %w", symbol, err, domain.ErrPriceUnavailable)
	}
	closes := make([]decimal.Decimal, len(raw))
	for i, c := range raw {
		closes[i] = decimal.NewFromFloat(c)
	}
	return closes, nil
}
