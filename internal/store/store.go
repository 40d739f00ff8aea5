// Package store defines storage interfaces for the order journal and the
// offline daily-bar history.
package store

import (
	"context"
	"time"

	"tradesim/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bars.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with existing data.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end], oldest
	// first.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// LatestCloses returns up to n closing prices, most recent first.
	LatestCloses(ctx context.Context, symbol string, n int) ([]float64, error)

	// ListSymbols returns all symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// OrderStore journals processed orders.
type OrderStore interface {
	// SaveResult appends an order outcome to the journal.
	SaveResult(ctx context.Context, result domain.OrderResult) error

	// ListResults returns the most recent outcomes, newest first. limit <= 0
	// returns all of them.
	ListResults(ctx context.Context, limit int) ([]domain.OrderResult, error)
}
