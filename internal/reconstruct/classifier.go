package reconstruct

import (
	"time"

	"go.uber.org/zap"

	"yieldScope/internal/model"
	"yieldScope/internal/protocol"
)

// Bucket selects the EventSet slice a classifier writes to.
type Bucket int

const (
	BucketStabilityPool Bucket = iota
	BucketRob
	BucketIndyStaking
	BucketOther
)

// Classifier derives events from one transaction. Implementations are pure.
type Classifier interface {
	Name() string
	Bucket() Bucket
	Classify(tx TxContext) []model.Event
}

// TxContext is everything a classifier may look at for one transaction.
type TxContext struct {
	Tx        model.RawTransaction
	Utxos     model.TxUtxoSet
	Timestamp string
	Filter    protocol.FilterConfig
	Logger    *zap.Logger
}

func newTxContext(tx model.RawTransaction, utxos model.TxUtxoSet, now time.Time, filter protocol.FilterConfig, logger *zap.Logger) TxContext {
	ts := now
	if tx.BlockTime != nil {
		ts = time.Unix(*tx.BlockTime, 0)
	}
	return TxContext{
		Tx:        tx,
		Utxos:     utxos,
		Timestamp: ts.UTC().Format(time.RFC3339),
		Filter:    filter,
		Logger:    logger,
	}
}

func (c TxContext) event(p model.Payload) model.Event {
	var slot *uint64
	if c.Tx.SlotNo != nil {
		v := *c.Tx.SlotNo
		slot = &v
	}
	return model.Event{
		Payload:   p,
		Timestamp: c.Timestamp,
		Slot:      slot,
		TxHash:    c.Tx.TxHash,
	}
}

func (c TxContext) totalIn() uint64 {
	return sumLovelace(c.Utxos.Inputs, nil)
}

func (c TxContext) totalOut() uint64 {
	return sumLovelace(c.Utxos.Outputs, nil)
}
