package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"tradesim/internal/domain"
	"tradesim/internal/store"
)

// barSource fetches daily bars for a date range. *pricesource.Alpaca
// satisfies it.
type barSource interface {
	BarsBetween(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// refresher keeps the last days of daily bars for each symbol up to date.
type refresher struct {
	src   barSource
	store store.BarStore
	days  int
	now   func() time.Time
	log   *slog.Logger
}

// symbolsToRefresh returns the explicit comma-separated list when given,
// otherwise the watchlist plus every symbol already in the store.
func symbolsToRefresh(ctx context.Context, bars store.BarStore, explicit string, watchlist []string) ([]string, error) {
	var list []string
	if explicit != "" {
		list = strings.Split(explicit, ",")
	} else {
		stored, err := bars.ListSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing stored symbols: %w", err)
		}
		list = append(slices.Clone(watchlist), stored...)
	}

	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, sym := range list {
		sym = domain.NormalizeSymbol(sym)
		if _, dup := seen[sym]; dup || sym == "" {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	slices.Sort(out)
	return out, nil
}

// refresh fetches bars newer than the latest one stored inside the window,
// or the whole window when none is stored, and returns how many it wrote.
func (r *refresher) refresh(ctx context.Context, symbol string) (int, error) {
	end := r.now().UTC()
	start := end.AddDate(0, 0, -r.days)

	stored, err := r.store.ReadBars(ctx, symbol, start, end)
	if err != nil {
		return 0, fmt.Errorf("reading stored bars: %w", err)
	}
	if n := len(stored); n > 0 {
		start = stored[n-1].Timestamp.UTC().AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		r.log.Debug("bars up to date", "symbol", symbol, "stored", len(stored))
		return 0, nil
	}

	bars, err := r.src.BarsBetween(ctx, symbol, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetching bars: %w", err)
	}
	if len(bars) == 0 {
		return 0, nil
	}
	if err := r.store.WriteBars(ctx, bars); err != nil {
		return 0, fmt.Errorf("writing bars: %w", err)
	}
	return len(bars), nil
}
