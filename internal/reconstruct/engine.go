package reconstruct

import (
	"time"

	"go.uber.org/zap"

	"yieldScope/internal/model"
	"yieldScope/internal/protocol"
)

// Lookup returns the UTXO set for a transaction hash, or false when it was not fetched.
type Lookup func(txHash string) (model.TxUtxoSet, bool)

// Engine runs every classifier over each transaction and buckets the results.
type Engine struct {
	filter      protocol.FilterConfig
	classifiers []Classifier
	logger      *zap.Logger
}

// NewEngine builds an engine with the pool, order-book and staking classifiers.
// An empty filter runs in heuristic mode.
func NewEngine(filter protocol.FilterConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		filter: filter,
		classifiers: []Classifier{
			PoolClassifier{},
			OrderBookClassifier{},
			StakingClassifier{},
		},
		logger: logger,
	}
}

func (e *Engine) Mode() protocol.Mode {
	return e.filter.Mode()
}

// Reconstruct classifies txs and returns the sorted event set. now stamps
// transactions that have no block time. Repeated tx hashes are processed once.
func (e *Engine) Reconstruct(txs []model.RawTransaction, lookup Lookup, now time.Time) model.EventSet {
	set := model.EventSet{
		StabilityPool: []model.Event{},
		Rob:           []model.Event{},
		IndyStaking:   []model.Event{},
		Other:         []model.Event{},
	}
	seen := make(map[string]struct{}, len(txs))
	skipped := 0

	for _, tx := range txs {
		if _, ok := seen[tx.TxHash]; ok {
			continue
		}
		seen[tx.TxHash] = struct{}{}

		utxos, ok := lookup(tx.TxHash)
		if !ok {
			skipped++
			e.logger.Debug("skip tx without utxo set", zap.String("tx_hash", tx.TxHash))
			continue
		}

		ctx := newTxContext(tx, utxos, now, e.filter, e.logger)
		for _, c := range e.classifiers {
			events := c.Classify(ctx)
			if len(events) == 0 {
				continue
			}
			switch c.Bucket() {
			case BucketStabilityPool:
				set.StabilityPool = append(set.StabilityPool, events...)
			case BucketRob:
				set.Rob = append(set.Rob, events...)
			case BucketIndyStaking:
				set.IndyStaking = append(set.IndyStaking, events...)
			default:
				set.Other = append(set.Other, events...)
			}
		}
	}

	set.Sort()
	e.logger.Info("reconstruct done",
		zap.String("mode", string(e.filter.Mode())),
		zap.Int("txs", len(seen)),
		zap.Int("skipped", skipped),
		zap.Int("stability_pool", len(set.StabilityPool)),
		zap.Int("rob", len(set.Rob)),
		zap.Int("indy_staking", len(set.IndyStaking)),
	)
	return set
}

// MapLookup adapts a map of fetched UTXO sets to a Lookup.
func MapLookup(sets map[string]model.TxUtxoSet) Lookup {
	return func(txHash string) (model.TxUtxoSet, bool) {
		set, ok := sets[txHash]
		return set, ok
	}
}
