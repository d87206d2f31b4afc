package chain

import "yieldScope/internal/model"

// Range is an inclusive window over slots and/or block times. Zero bounds are open.
type Range struct {
	From SlotTime
	To   SlotTime
}

// ParseRange normalizes both bounds.
func ParseRange(from, to string) (Range, error) {
	start, err := NormalizeSlotTime(from)
	if err != nil {
		return Range{}, err
	}
	end, err := NormalizeSlotTime(to)
	if err != nil {
		return Range{}, err
	}
	return Range{From: start, To: end}, nil
}

func (r Range) IsOpen() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether tx falls inside the window. A transaction without
// the slot or block time a bound refers to is outside that bound.
func (r Range) Contains(tx model.RawTransaction) bool {
	if r.From.Slot != nil && (tx.SlotNo == nil || *tx.SlotNo < *r.From.Slot) {
		return false
	}
	if r.To.Slot != nil && (tx.SlotNo == nil || *tx.SlotNo > *r.To.Slot) {
		return false
	}
	if r.From.UnixTS != nil && (tx.BlockTime == nil || *tx.BlockTime < *r.From.UnixTS) {
		return false
	}
	if r.To.UnixTS != nil && (tx.BlockTime == nil || *tx.BlockTime > *r.To.UnixTS) {
		return false
	}
	return true
}

// Filter returns the transactions inside the window, preserving order.
func (r Range) Filter(txs []model.RawTransaction) []model.RawTransaction {
	if r.IsOpen() {
		return txs
	}
	out := make([]model.RawTransaction, 0, len(txs))
	for _, tx := range txs {
		if r.Contains(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// cacheParams is the request description hashed into the account_txs cache key.
func (r Range) cacheParams(address string) map[string]interface{} {
	return map[string]interface{}{
		"address": address,
		"from":    slotParam(r.From),
		"to":      slotParam(r.To),
		"from_ts": r.From.UnixTS,
		"to_ts":   r.To.UnixTS,
	}
}

func slotParam(s SlotTime) interface{} {
	if s.Slot == nil {
		return nil
	}
	return *s.Slot
}
