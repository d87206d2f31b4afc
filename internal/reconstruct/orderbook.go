package reconstruct

import (
	"yieldScope/internal/model"
)

// OrderBookClassifier detects redemption order placements and fills from the
// ADA balance across order-book UTXOs. Without configured identifiers every UTXO counts.
type OrderBookClassifier struct{}

func (OrderBookClassifier) Name() string   { return "rob" }
func (OrderBookClassifier) Bucket() Bucket { return BucketRob }

func (OrderBookClassifier) Classify(tx TxContext) []model.Event {
	keep := func(u model.Utxo) bool {
		return tx.Filter.IsOrderBookDatum(u.DatumHash) && tx.Filter.IsOrderBookScript(u.PaymentCredential)
	}
	in := sumLovelace(tx.Utxos.Inputs, keep)
	out := sumLovelace(tx.Utxos.Outputs, keep)

	switch {
	case out > in && in > 0:
		pct := premiumPct(in, out)
		reimbursement := pct
		return []model.Event{tx.event(model.OrderFill{
			FilledLovelace:   out,
			PremiumPct:       &pct,
			ReimbursementPct: &reimbursement,
		})}
	case in > 0 && out == 0:
		return []model.Event{tx.event(model.OrderPlace{
			AmountLovelace: in,
		})}
	default:
		return nil
	}
}
