package pipeline

import (
	"fmt"

	"yieldScope/internal/model"
)

func uniqueHashes(txs []model.RawTransaction) []string {
	seen := make(map[string]struct{}, len(txs))
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		if _, ok := seen[tx.TxHash]; ok {
			continue
		}
		seen[tx.TxHash] = struct{}{}
		out = append(out, tx.TxHash)
	}
	return out
}

func txHashes(txs []model.RawTransaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.TxHash)
	}
	return out
}

func slots(txs []model.RawTransaction) []uint64 {
	out := make([]uint64, 0, len(txs))
	for _, tx := range txs {
		if tx.SlotNo != nil {
			out = append(out, *tx.SlotNo)
		}
	}
	return out
}

// blockTimeBounds returns the earliest and latest block times, nil when none are known.
func blockTimeBounds(txs []model.RawTransaction) (*int64, *int64) {
	var start, end *int64
	for _, tx := range txs {
		if tx.BlockTime == nil {
			continue
		}
		ts := *tx.BlockTime
		if start == nil || ts < *start {
			v := ts
			start = &v
		}
		if end == nil || ts > *end {
			v := ts
			end = &v
		}
	}
	return start, end
}

// inputRefs lists the on-chain references an evidence bundle relied on:
// spent outputs, datum hashes and asset policies.
func inputRefs(sets map[string]model.TxUtxoSet) []string {
	var out []string
	for _, set := range sets {
		for _, in := range set.Inputs {
			out = append(out, fmt.Sprintf("utxo:%s#%d", in.TxHash, in.TxIndex))
			out = appendUtxoRefs(out, in)
		}
		for _, o := range set.Outputs {
			out = appendUtxoRefs(out, o)
		}
	}
	return out
}

func appendUtxoRefs(out []string, u model.Utxo) []string {
	if u.DatumHash != nil && *u.DatumHash != "" {
		out = append(out, "datum:"+*u.DatumHash)
	}
	for _, a := range u.AssetList {
		if a.PolicyID != "" {
			out = append(out, "policy:"+a.PolicyID)
		}
	}
	return out
}
