// Command tradesim-server runs the paper-trading simulator behind an HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"tradesim/internal/api"
	"tradesim/internal/config"
	"tradesim/internal/engine"
	"tradesim/internal/ledger"
	"tradesim/internal/predict"
	"tradesim/internal/pricesource"
	"tradesim/internal/store"
	"tradesim/internal/util"
)

func main() {
	cfg, err := config.LoadOrDefault(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("tradesim-server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) (err error) {
	cash, err := decimal.NewFromString(cfg.Account.StartingBalance)
	if err != nil {
		return fmt.Errorf("account.starting_balance %q: %w", cfg.Account.StartingBalance, err)
	}
	l, err := ledger.New(cash)
	if err != nil {
		return err
	}

	src, err := pricesource.Open(cfg, logger)
	if err != nil {
		return err
	}
	if src != nil && cfg.RateLimitShort() {
		logger.Warn("rate limit below one watchlist refresh, some estimates will use the heuristic",
			"rate_limit_per_min", cfg.Prices.RateLimitPerMin, "calls_per_refresh", cfg.CallsPerRefresh())
	}
	prices := pricesource.NewResilient(src, pricesource.NewSynthetic(cfg.Prices.FallbackSeed), logger)

	var model predict.Model
	if cfg.Model.Path != "" {
		m, loadErr := predict.LoadONNX(cfg.Model.Path, cfg.Model.SharedLibrary, cfg.Model.InputName, cfg.Model.OutputName)
		if loadErr != nil {
			logger.Warn("model unavailable, predictions use the heuristic", "path", cfg.Model.Path, "error", loadErr)
		} else {
			model = m
			defer func() { err = multierr.Append(err, m.Close()) }()
		}
	}
	adapter := predict.NewAdapter(model, predict.Normalizer{
		InputMean:  cfg.Model.InputMean,
		InputStd:   cfg.Model.InputStd,
		OutputMean: cfg.Model.OutputMean,
		OutputStd:  cfg.Model.OutputStd,
	}, logger)

	journal, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening order journal: %w", err)
	}
	defer func() { err = multierr.Append(err, journal.Close()) }()

	exec := engine.NewExecutor(l, prices,
		engine.WithRiskManager(engine.NewRiskManager(cfg.Trading.MaxPositionPct)),
		engine.WithJournal(journal),
		engine.WithLogger(logger),
	)
	orch := engine.NewOrchestrator(prices, adapter, cfg.Prices.HistoryPoints, logger)

	srv := api.NewServer(api.Options{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Executor:     exec,
		Orchestrator: orch,
		Prices:       prices,
		Journal:      journal,
		Watchlist:    cfg.Account.Watchlist,
		Logger:       logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting tradesim-server",
		"provider", cfg.Prices.Provider,
		"starting_balance", cash.String(),
		"model_present", adapter.ModelPresent(),
		"journal", cfg.Storage.SQLitePath,
	)
	return srv.ListenAndServe(ctx)
}
