// Command tradesim-history downloads daily bars from Alpaca into the local
// Parquet store used by the "parquet" price provider. Symbols already on
// disk are topped up from their latest stored bar.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradesim/internal/config"
	"tradesim/internal/pricesource"
	"tradesim/internal/store"
	"tradesim/internal/util"
)

func main() {
	symbols := flag.String("symbols", "", "comma-separated symbols (default: watchlist plus every stored symbol)")
	days := flag.Int("days", 45, "calendar days of daily bars to keep per symbol")
	rate := flag.Int("rate", 200, "Alpaca requests per minute")
	flag.Parse()

	cfg, err := config.LoadOrDefault(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	src := pricesource.NewAlpaca(pricesource.AlpacaOptions{
		APIKey:          cfg.Alpaca.APIKey,
		APISecret:       cfg.Alpaca.APISecret,
		DataURL:         cfg.Alpaca.DataURL,
		Feed:            cfg.Alpaca.Feed,
		RateLimitPerMin: *rate,
		Logger:          logger,
	})
	ps := store.NewParquetStore(cfg.Storage.DataDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	list, err := symbolsToRefresh(ctx, ps, *symbols, cfg.Account.Watchlist)
	if err != nil {
		logger.Error("selecting symbols", "error", err)
		os.Exit(1)
	}

	r := &refresher{src: src, store: ps, days: *days, now: time.Now, log: logger}
	failed := 0
	for _, sym := range list {
		n, err := r.refresh(ctx, sym)
		if err != nil {
			logger.Error("refreshing bars", "symbol", sym, "error", err)
			failed++
			continue
		}
		logger.Info("stored bars", "symbol", sym, "count", n, "dir", cfg.Storage.DataDir)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
