package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yieldScope/internal/bundle"
	"yieldScope/internal/chain"
	"yieldScope/internal/compute"
	"yieldScope/internal/model"
	"yieldScope/internal/reconstruct"
	"yieldScope/internal/storage"
)

const DefaultConcurrency = 4

// Fetcher is the subset of the chain client the runner needs.
type Fetcher interface {
	AccountTxs(ctx context.Context, address, from, to string) ([]model.RawTransaction, error)
	TxUtxos(ctx context.Context, txHash string) (model.TxUtxoSet, error)
	ResponseHashes() []string
}

// RunConfig holds runtime settings for one address.
type RunConfig struct {
	Address     string
	From        string
	To          string
	Concurrency int

	// Optional overrides; by default the period spans the fetched block times.
	PeriodStart     *int64
	PeriodEnd       *int64
	CurrentPosition *uint64

	// Now stamps the bundle and events without a block time. Defaults to time.Now.
	Now func() time.Time
}

// FetchStats summarises a fetch pass.
type FetchStats struct {
	Transactions int
	WithUtxos    int
	Skipped      int
}

// Result is the outcome of a full run.
type Result struct {
	RunID  string
	Bundle bundle.Bundle
	Stats  FetchStats
}

// Runner fetches an address's history, rebuilds its events and produces a bundle.
type Runner struct {
	cfg    RunConfig
	fetch  Fetcher
	engine *reconstruct.Engine
	sink   storage.EventSink
	logger *zap.Logger
}

// NewRunner builds a Runner. sink may be nil.
func NewRunner(cfg RunConfig, fetch Fetcher, engine *reconstruct.Engine, sink storage.EventSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		cfg:    cfg,
		fetch:  fetch,
		engine: engine,
		sink:   sink,
		logger: logger,
	}
}

type fetched struct {
	txs  []model.RawTransaction
	sets map[string]model.TxUtxoSet
}

// Fetch pulls the account transactions and their UTXOs, warming the cache.
func (r *Runner) Fetch(ctx context.Context) (FetchStats, error) {
	_, stats, err := r.collect(ctx)
	return stats, err
}

// Run executes fetch, reconstruction, metrics and bundle assembly.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.engine == nil {
		return Result{}, fmt.Errorf("reconstruction engine is nil")
	}
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID), zap.String("address", r.cfg.Address))
	logger.Info("run start", zap.String("mode", string(r.engine.Mode())))

	data, stats, err := r.collect(ctx)
	if err != nil {
		return Result{}, err
	}

	now := r.cfg.Now().UTC()
	events := r.engine.Reconstruct(data.txs, reconstruct.MapLookup(data.sets), now)

	if r.sink != nil {
		if err := r.sink.PutEvents(events.All()); err != nil {
			return Result{}, fmt.Errorf("store events: %w", err)
		}
	}

	start, end := blockTimeBounds(data.txs)
	if r.cfg.PeriodStart != nil {
		start = r.cfg.PeriodStart
	}
	if r.cfg.PeriodEnd != nil {
		end = r.cfg.PeriodEnd
	}
	metrics := compute.Compute(compute.Input{
		Events:          events,
		PeriodStart:     start,
		PeriodEnd:       end,
		CurrentPosition: r.cfg.CurrentPosition,
	})

	b := bundle.New(bundle.Inputs{
		Address:        r.cfg.Address,
		CreatedAt:      now,
		TxHashes:       txHashes(data.txs),
		InputRefs:      inputRefs(data.sets),
		ResponseHashes: r.fetch.ResponseHashes(),
		Events:         events,
		Metrics:        metrics,
		Slots:          slots(data.txs),
	})

	logger.Info("run complete",
		zap.Int("transactions", stats.Transactions),
		zap.Int("skipped", stats.Skipped),
		zap.Int("events", events.Len()),
	)
	return Result{RunID: runID, Bundle: b, Stats: stats}, nil
}

func (r *Runner) collect(ctx context.Context) (fetched, FetchStats, error) {
	if r.fetch == nil {
		return fetched{}, FetchStats{}, fmt.Errorf("fetcher is nil")
	}
	if r.cfg.Address == "" {
		return fetched{}, FetchStats{}, fmt.Errorf("address is required")
	}

	txs, err := r.fetch.AccountTxs(ctx, r.cfg.Address, r.cfg.From, r.cfg.To)
	if err != nil {
		return fetched{}, FetchStats{}, fmt.Errorf("account txs: %w", err)
	}

	var (
		mu   sync.Mutex
		sets = make(map[string]model.TxUtxoSet, len(txs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	hashes := uniqueHashes(txs)
	for _, hash := range hashes {
		hash := hash
		g.Go(func() error {
			set, err := r.fetch.TxUtxos(gctx, hash)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if errors.Is(err, chain.ErrOfflineMiss) {
					r.logger.Debug("tx utxos not cached", zap.String("tx_hash", hash))
				} else {
					r.logger.Warn("tx utxos failed, skipping", zap.String("tx_hash", hash), zap.Error(err))
				}
				return nil
			}
			mu.Lock()
			sets[hash] = set
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fetched{}, FetchStats{}, fmt.Errorf("tx utxos: %w", err)
	}

	stats := FetchStats{
		Transactions: len(txs),
		WithUtxos:    len(sets),
		Skipped:      len(hashes) - len(sets),
	}
	r.logger.Info("fetch complete",
		zap.String("address", r.cfg.Address),
		zap.Int("transactions", stats.Transactions),
		zap.Int("with_utxos", stats.WithUtxos),
		zap.Int("skipped", stats.Skipped),
	)
	return fetched{txs: txs, sets: sets}, stats, nil
}
