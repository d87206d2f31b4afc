package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yieldScope/internal/chain"
)

// exitError carries a process exit status through cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yieldscope",
		Short:         "Proof of yield for Indigo Protocol positions on Cardano",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch on-chain history for an address into the cache",
		RunE:  runFetch,
	}
	addFetchFlags(fetchCmd.Flags())
	root.AddCommand(fetchCmd)

	computeCmd := &cobra.Command{
		Use:   "compute",
		Short: "Rebuild events, compute metrics and write an evidence bundle",
		RunE:  runCompute,
	}
	addFetchFlags(computeCmd.Flags())
	computeCmd.Flags().String("reports-dir", "./reports", "directory for the bundle and its hash file")
	computeCmd.Flags().String("events-out", "", "optional JSONL path for reconstructed events, rewritten on every run")
	computeCmd.Flags().String("protocol-config", "", "protocol filter config (defaults to $INDIGO_V2_CONFIG_PATH or ./config/indigo_v2.json)")
	computeCmd.Flags().String("period-start", "", "period start (unix seconds or RFC3339), defaults to the earliest block time")
	computeCmd.Flags().String("period-end", "", "period end (unix seconds or RFC3339), defaults to the latest block time")
	computeCmd.Flags().String("position", "", "current ADA position in lovelace used for APR")
	computeCmd.Flags().Bool("demo", false, "write a fixed sample bundle instead of fetching")
	root.AddCommand(computeCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute a bundle's hash and compare it with its .sha256 file",
		RunE:  runVerify,
	}
	verifyCmd.Flags().String("bundle", "", "bundle JSON path")
	verifyCmd.Flags().String("events", "", "optional JSONL event log to cross-check against the bundle")
	verifyCmd.Flags().String("pg-dsn", "", "Postgres DSN; without a hash file, compare with the latest archived bundle for the address")
	verifyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(verifyCmd)

	return root
}

func addFetchFlags(flags *pflag.FlagSet) {
	defaults := chain.DefaultConfig()
	flags.String("address", "", "Cardano address (addr1..., addr_test1..., stake1...)")
	flags.String("from", "", "start bound (slot number or RFC3339), inclusive")
	flags.String("to", "", "end bound (slot number or RFC3339), inclusive")
	flags.String("base-url", defaults.BaseURL, "Koios API base URL")
	flags.String("cache-dir", "./data/cache", "directory holding cache.sqlite")
	flags.String("pg-dsn", "", "Postgres DSN; when set the cache and bundle archive live in Postgres")
	flags.Bool("offline", false, "serve only from cache, never touch the network")
	flags.Duration("min-interval", defaults.MinInterval, "minimum spacing between requests")
	flags.Int("max-retries", defaults.MaxRetries, "maximum retry attempts per request")
	flags.Duration("retry-backoff", defaults.RetryBackoff, "initial retry backoff")
	flags.Duration("timeout", defaults.Timeout, "per-request timeout")
	flags.Int("concurrency", 4, "parallel tx_utxos lookups (network requests stay serialized)")
	flags.String("metrics-textfile", "", "optional Prometheus textfile output path")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func since(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start).Round(time.Millisecond))
}
