package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldScope/internal/bundle"
	"yieldScope/internal/config"
	"yieldScope/internal/model"
	"yieldScope/internal/storage"
	"yieldScope/internal/storage/postgres"
)

const archiveSource = "postgres:bundles"

func runVerify(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVerify(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	res, err := bundle.VerifyFile(cfg.Bundle)
	if err != nil {
		return err
	}
	if res.Outcome == bundle.OutcomeNoExpected && cfg.PGDSN != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		archived, ok, err := verifyArchived(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if ok {
			res = archived
		}
	}
	logger.Info("verify",
		zap.String("bundle", cfg.Bundle),
		zap.String("hash_file", res.HashPath),
		zap.String("outcome", res.Outcome.String()),
	)

	switch res.Outcome {
	case bundle.OutcomeMatch:
		if cfg.Events != "" {
			logged, want, err := checkEventLog(cfg.Events, cfg.Bundle)
			if err != nil {
				return err
			}
			if logged != want {
				fmt.Fprintf(cmd.ErrOrStderr(), "EVENTS_MISMATCH\tlog=%s\tbundle=%s\n", logged, want)
				return &exitError{code: 1}
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK\t%s\n", res.Computed)
		return nil
	case bundle.OutcomeMismatch:
		fmt.Fprintf(cmd.ErrOrStderr(), "MISMATCH\tcomputed=%s\texpected=%s\n", res.Computed, res.Expected)
		return &exitError{code: 1}
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "NO_EXPECTED_HASH\tcomputed=%s\tmissing=%s\n", res.Computed, res.HashPath)
		return &exitError{code: 2}
	}
}

// verifyArchived compares the bundle with the newest archived bundle for its address.
// ok is false when the archive holds nothing for that address.
func verifyArchived(ctx context.Context, cfg config.VerifyConfig, logger *zap.Logger) (bundle.FileVerification, bool, error) {
	b, err := bundle.ReadFile(cfg.Bundle)
	if err != nil {
		return bundle.FileVerification{}, false, err
	}

	pg, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return bundle.FileVerification{}, false, fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		return bundle.FileVerification{}, false, err
	}

	latest, ok, err := pg.LatestBundle(ctx, b.Address)
	if err != nil {
		return bundle.FileVerification{}, false, fmt.Errorf("latest archived bundle: %w", err)
	}
	if !ok {
		logger.Info("no archived bundle", zap.String("address", b.Address), zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
		return bundle.FileVerification{}, false, nil
	}

	v, err := bundle.Verify(b, latest)
	if err != nil {
		return bundle.FileVerification{}, false, err
	}
	out := bundle.FileVerification{Verification: v, HashPath: archiveSource, Outcome: bundle.OutcomeMismatch}
	if v.Matches {
		out.Outcome = bundle.OutcomeMatch
	}
	return out, true, nil
}

// checkEventLog returns a short fingerprint of the logged events and of the bundle's events.
// The two are equal when both hold the same events, in any order.
func checkEventLog(eventsPath, bundlePath string) (string, string, error) {
	logged, err := storage.ReadEvents(eventsPath)
	if err != nil {
		return "", "", err
	}
	b, err := bundle.ReadFile(bundlePath)
	if err != nil {
		return "", "", err
	}

	got, err := eventFingerprint(logged)
	if err != nil {
		return "", "", err
	}
	want, err := eventFingerprint(b.Events.All())
	if err != nil {
		return "", "", err
	}
	return got, want, nil
}

func eventFingerprint(events []model.Event) (string, error) {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		line, err := json.Marshal(ev)
		if err != nil {
			return "", fmt.Errorf("encode event %s: %w", ev.TxHash, err)
		}
		lines = append(lines, string(line))
	}
	sort.Strings(lines)

	data, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%d:%s", len(lines), hex.EncodeToString(sum[:8])), nil
}
