package pricesource

import (
	"fmt"
	"log/slog"
	"strings"

	"tradesim/internal/config"
	"tradesim/internal/store"
)

// Open builds the raw Source selected by cfg.Prices.Provider. "none" returns a
// nil Source, which makes the Resilient wrapper serve synthetic quotes only.
func Open(cfg *config.Config, log *slog.Logger) (Source, error) {
	switch strings.ToLower(cfg.Prices.Provider) {
	case "", "alphavantage":
		return NewAlphaVantage(AlphaVantageOptions{
			BaseURL:         cfg.AlphaVantage.BaseURL,
			APIKey:          cfg.AlphaVantage.APIKey,
			Timeout:         cfg.Prices.Timeout,
			RateLimitPerMin: cfg.Prices.RateLimitPerMin,
			Retries:         cfg.Prices.Retries,
			Logger:          log,
		}), nil
	case "alpaca":
		return NewAlpaca(AlpacaOptions{
			APIKey:          cfg.Alpaca.APIKey,
			APISecret:       cfg.Alpaca.APISecret,
			DataURL:         cfg.Alpaca.DataURL,
			Feed:            cfg.Alpaca.Feed,
			RateLimitPerMin: cfg.Prices.RateLimitPerMin,
			Logger:          log,
		}), nil
	case "parquet":
		return NewOffline(store.NewParquetStore(cfg.Storage.DataDir)), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.Prices.Provider)
	}
}
