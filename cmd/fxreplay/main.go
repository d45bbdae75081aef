package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fxarb/internal/arbitrage"
	"fxarb/internal/backtest"
	"fxarb/internal/config"
	"fxarb/internal/infra/log"
	"fxarb/internal/report"
)

const usage = "Usage: fxreplay <quotes.csv>"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, cfgErr := config.LoadChecked()
	logger := log.NewLogger(cfg)
	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("config file skipped, using defaults and environment")
	}
	eng := arbitrage.New(cfg, report.Multi{report.NewLog(logger)}, logger)

	sum, err := backtest.ReplayFile(ctx, args[0], eng)
	if err != nil {
		logger.Error().Err(err).Str("file", args[0]).Msg("replay failed")
		return 1
	}
	ev := logger.Info().
		Int("rows", sum.Rows).
		Int("skipped", sum.Skipped).
		Int("accepted", sum.Accepted).
		Int("rejected", sum.Rejected).
		Int("evicted", sum.Evicted).
		Int("opportunities", sum.Opportunities)
	if sum.Best != nil {
		ev = ev.Str("best_cycle", sum.Best.Path()).Float64("best_gain_bps", sum.Best.GainBps())
	}
	ev.Msg("replay complete")
	return 0
}
