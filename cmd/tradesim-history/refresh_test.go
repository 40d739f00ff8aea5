package main

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"tradesim/internal/domain"
	"tradesim/internal/store"
	"tradesim/internal/util"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeBars serves one bar per calendar day in the requested range and
// records each request.
type fakeBars struct {
	starts []time.Time
	err    error
}

func (f *fakeBars) BarsBetween(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	f.starts = append(f.starts, start)
	if f.err != nil {
		return nil, f.err
	}
	var bars []domain.Bar
	for d := start.Truncate(24 * time.Hour); !d.After(end); d = d.AddDate(0, 0, 1) {
		bars = append(bars, domain.Bar{Symbol: symbol, Timestamp: d, Close: 100})
	}
	return bars, nil
}

func newRefresher(src barSource, bars store.BarStore, now time.Time) *refresher {
	return &refresher{src: src, store: bars, days: 10, now: func() time.Time { return now }, log: util.Discard()}
}

func TestRefreshFetchesOnlyNewBars(t *testing.T) {
	ctx := context.Background()
	ps := store.NewParquetStore(t.TempDir())
	src := &fakeBars{}

	r := newRefresher(src, ps, day(2024, 6, 11))
	n, err := r.refresh(ctx, "AAPL")
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if n != 11 || !src.starts[0].Equal(day(2024, 6, 1)) {
		t.Errorf("first refresh wrote %d bars from %v, want 11 from 2024-06-01", n, src.starts[0])
	}

	r.now = func() time.Time { return day(2024, 6, 14) }
	n, err = r.refresh(ctx, "AAPL")
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if n != 3 || !src.starts[1].Equal(day(2024, 6, 12)) {
		t.Errorf("second refresh wrote %d bars from %v, want 3 from 2024-06-12", n, src.starts[1])
	}

	n, err = r.refresh(ctx, "AAPL")
	if err != nil || n != 0 || len(src.starts) != 2 {
		t.Errorf("up-to-date refresh = %d, %v after %d fetches, want no fetch", n, err, len(src.starts))
	}
}

func TestRefreshFetchError(t *testing.T) {
	ps := store.NewParquetStore(t.TempDir())
	r := newRefresher(&fakeBars{err: domain.ErrPriceUnavailable}, ps, day(2024, 6, 11))

	if _, err := r.refresh(context.Background(), "AAPL"); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Errorf("refresh error = %v, want ErrPriceUnavailable", err)
	}
	if syms, _ := ps.ListSymbols(context.Background()); len(syms) != 0 {
		t.Errorf("stored symbols = %v after failed fetch, want none", syms)
	}
}

func TestSymbolsToRefresh(t *testing.T) {
	ctx := context.Background()
	ps := store.NewParquetStore(t.TempDir())
	if err := ps.WriteBars(ctx, []domain.Bar{{Symbol: "NVDA", Timestamp: day(2024, 1, 2), Close: 480}}); err != nil {
		t.Fatal(err)
	}

	got, err := symbolsToRefresh(ctx, ps, " msft,aapl,,MSFT", []string{"TSLA"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"AAPL", "MSFT"}; !slices.Equal(got, want) {
		t.Errorf("explicit symbols = %v, want %v", got, want)
	}

	got, err = symbolsToRefresh(ctx, ps, "", []string{"TSLA", "nvda"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"NVDA", "TSLA"}; !slices.Equal(got, want) {
		t.Errorf("default symbols = %v, want %v", got, want)
	}
}
