package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldScope/internal/chain"
	"yieldScope/internal/config"
	"yieldScope/internal/pipeline"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	address, err := chain.ParseAddress(cfg.Address)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	logger.Info("fetch start",
		zap.String("address", address),
		zap.String("from", cfg.From),
		zap.String("to", cfg.To),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("offline", cfg.Offline),
		zap.Int("concurrency", cfg.Concurrency),
	)

	started := time.Now()
	runner := pipeline.NewRunner(pipeline.RunConfig{
		Address:     address,
		From:        cfg.From,
		To:          cfg.To,
		Concurrency: cfg.Concurrency,
	}, e.client, nil, nil, logger)

	stats, err := runner.Fetch(ctx)
	e.flushMetrics(cfg.MetricsTextfile, logger)
	if err != nil {
		return err
	}

	logger.Info("fetch done", zap.Uint64("requests", e.client.RequestCount()), since(started))
	fmt.Fprintf(cmd.OutOrStdout(), "fetched %s transactions (%s with utxos, %s skipped) using %s requests\n",
		humanize.Comma(int64(stats.Transactions)),
		humanize.Comma(int64(stats.WithUtxos)),
		humanize.Comma(int64(stats.Skipped)),
		humanize.Comma(int64(e.client.RequestCount())),
	)
	return nil
}
