package pricesource

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/util"
)

// Alpaca reads latest trades and daily bars from the Alpaca market-data API.
type Alpaca struct {
	client  *marketdata.Client
	feed    string
	limiter *util.RateLimiter
	log     *slog.Logger
	now     func() time.Time
}

// AlpacaOptions configures an Alpaca source.
type AlpacaOptions struct {
	APIKey          string
	APISecret       string
	DataURL         string
	Feed            string // "iex" or "sip"
	RateLimitPerMin int
	Logger          *slog.Logger
}

// NewAlpaca creates an Alpaca market-data source.
func NewAlpaca(opts AlpacaOptions) *Alpaca {
	copts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.DataURL != "" {
		copts.BaseURL = opts.DataURL
	}
	if opts.Feed == "" {
		opts.Feed = "iex"
	}
	if opts.Logger == nil {
		opts.Logger = util.Discard()
	}
	return &Alpaca{
		client:  marketdata.NewClient(copts),
		feed:    opts.Feed,
		limiter: util.NewRateLimiter(opts.RateLimitPerMin, opts.RateLimitPerMin),
		log:     opts.Logger.With("provider", "alpaca"),
		now:     time.Now,
	}
}

// Name implements Source.
func (s *Alpaca) Name() string { return "alpaca" }

// Quote implements Source with the latest trade price.
func (s *Alpaca) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	if err := s.ready(ctx, symbol); err != nil {
		return domain.Quote{}, err
	}
	trade, err := s.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{Feed: s.feed})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("alpaca GetLatestTrade %s: %v: %w", symbol, err, domain.ErrPriceUnavailable)
	}
	if trade == nil || trade.Price <= 0 {
		return domain.Quote{}, fmt.Errorf("alpaca %s: no usable trade: %w", symbol, domain.ErrPriceUnavailable)
	}
	return domain.Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(trade.Price),
		AsOf:   trade.Timestamp.UTC(),
		Source: s.Name(),
	}, nil
}

// History implements Source with daily bar closes, most recent first. The
// request window is sized generously to cover weekends and holidays.
func (s *Alpaca) History(ctx context.Context, symbol string, maxPoints int) ([]decimal.Decimal, error) {
	bars, err := s.Bars(ctx, symbol, maxPoints)
	if err != nil {
		return nil, err
	}
	closes := make([]decimal.Decimal, 0, len(bars))
	for i := len(bars) - 1; i >= 0; i-- {
		closes = append(closes, decimal.NewFromFloat(bars[i].Close))
	}
	return closes, nil
}

// Bars returns up to maxPoints daily bars, oldest first.
func (s *Alpaca) Bars(ctx context.Context, symbol string, maxPoints int) ([]domain.Bar, error) {
	if err := s.ready(ctx, symbol); err != nil {
		return nil, err
	}
	end := s.now().UTC()
	start := end.AddDate(0, 0, -(maxPoints*7/5 + 10))

	bars, err := s.fetchBars(symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) > maxPoints {
		bars = bars[len(bars)-maxPoints:]
	}
	return bars, nil
}

// BarsBetween returns the daily bars in [start, end], oldest first. Unlike
// Bars it waits for the local rate limiter instead of failing, which suits
// batch downloads.
func (s *Alpaca) BarsBetween(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("alpaca %s: %v: %w", symbol, err, domain.ErrPriceUnavailable)
	}
	return s.fetchBars(symbol, start, end)
}

func (s *Alpaca) fetchBars(symbol string, start, end time.Time) ([]domain.Bar, error) {
	abars, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      s.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca GetBars %s: %v: %w", symbol, err, domain.ErrPriceUnavailable)
	}

	bars := make([]domain.Bar, 0, len(abars))
	for _, ab := range abars {
		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}
	slices.SortFunc(bars, func(a, b domain.Bar) int { return a.Timestamp.Compare(b.Timestamp) })
	return bars, nil
}

func (s *Alpaca) ready(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("alpaca %s: %v: %w", symbol, err, domain.ErrPriceUnavailable)
	}
	if !s.limiter.TryAcquire() {
		return fmt.Errorf("alpaca %s: local rate limit reached: %w", symbol, domain.ErrPriceUnavailable)
	}
	return nil
}
