package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldScope/internal/bundle"
	"yieldScope/internal/chain"
	"yieldScope/internal/config"
	"yieldScope/internal/pipeline"
	"yieldScope/internal/protocol"
	"yieldScope/internal/reconstruct"
	"yieldScope/internal/storage"
)

func runCompute(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCompute(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Demo {
		return writeDemo(cmd.OutOrStdout(), cfg.ReportsDir, logger)
	}

	address, err := chain.ParseAddress(cfg.Address)
	if err != nil {
		return err
	}

	filter, source, err := loadFilter(cfg.ProtocolConfig)
	if err != nil {
		return err
	}
	logger.Info("protocol filter",
		zap.String("source", sourceOrDefault(source)),
		zap.String("mode", string(filter.Mode())),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx, cfg.FetchConfig, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	var sink storage.EventSink
	if cfg.EventsOut != "" {
		jsonl := storage.NewJsonlStorage(cfg.EventsOut)
		if err := jsonl.Reset(); err != nil {
			return err
		}
		sink = jsonl
	}

	started := time.Now()
	runner := pipeline.NewRunner(pipeline.RunConfig{
		Address:         address,
		From:            cfg.From,
		To:              cfg.To,
		Concurrency:     cfg.Concurrency,
		PeriodStart:     cfg.PeriodStart,
		PeriodEnd:       cfg.PeriodEnd,
		CurrentPosition: cfg.CurrentPosition,
	}, e.client, reconstruct.NewEngine(filter, logger), sink, logger)

	res, err := runner.Run(ctx)
	e.flushMetrics(cfg.MetricsTextfile, logger)
	if err != nil {
		return err
	}

	written, err := bundle.WriteFiles(cfg.ReportsDir, bundle.FileStem(address), res.Bundle)
	if err != nil {
		return err
	}
	if e.pg != nil {
		if err := e.pg.SaveBundle(ctx, written.Hash, res.Bundle); err != nil {
			return fmt.Errorf("archive bundle: %w", err)
		}
		archived, err := e.pg.EventCount(ctx, written.Hash)
		if err != nil {
			return fmt.Errorf("count archived events: %w", err)
		}
		if archived != res.Bundle.Events.Len() {
			return fmt.Errorf("archive holds %d events for %s, bundle has %d", archived, written.Hash, res.Bundle.Events.Len())
		}
		logger.Info("bundle archived", zap.String("hash", written.Hash), zap.Int("events", archived))
	}

	logger.Info("compute complete",
		zap.String("run_id", res.RunID),
		zap.String("bundle", written.BundlePath),
		zap.String("hash_file", written.HashPath),
		zap.Uint64("requests", e.client.RequestCount()),
		since(started),
	)
	printSummary(cmd.ErrOrStderr(), res.Bundle)
	fmt.Fprintln(cmd.OutOrStdout(), written.Hash)
	return nil
}

func writeDemo(out io.Writer, dir string, logger *zap.Logger) error {
	written, err := bundle.WriteFiles(dir, "demo", bundle.Demo())
	if err != nil {
		return err
	}
	logger.Info("demo bundle written", zap.String("bundle", written.BundlePath), zap.String("hash_file", written.HashPath))
	fmt.Fprintln(out, written.Hash)
	return nil
}

func loadFilter(path string) (protocol.FilterConfig, string, error) {
	if path != "" {
		cfg, err := protocol.LoadFromPath(path)
		return cfg, path, err
	}
	return protocol.Load()
}

func sourceOrDefault(source string) string {
	if source == "" {
		return "built-in (heuristic)"
	}
	return source
}

func printSummary(w io.Writer, b bundle.Bundle) {
	m := b.Metrics
	fmt.Fprintf(w, "address      %s\n", b.Address)
	fmt.Fprintf(w, "transactions %s\n", humanize.Comma(int64(len(b.TxHashes))))
	fmt.Fprintf(w, "events       %s\n", humanize.Comma(int64(b.Events.Len())))
	fmt.Fprintf(w, "ada in       %s\n", ada(m.Combined.TotalAdaInLovelace))
	fmt.Fprintf(w, "ada out      %s\n", ada(m.Combined.TotalAdaOutLovelace))
	fmt.Fprintf(w, "net pnl      %s ADA\n", humanize.CommafWithDigits(float64(m.Combined.NetPnlLovelace)/1e6, 6))
	if m.Combined.AprPct != nil {
		fmt.Fprintf(w, "apr          %s%%\n", humanize.FtoaWithDigits(*m.Combined.AprPct, 2))
	} else {
		fmt.Fprintln(w, "apr          n/a")
	}
}

func ada(lovelace uint64) string {
	return humanize.CommafWithDigits(float64(lovelace)/1e6, 6) + " ADA"
}
