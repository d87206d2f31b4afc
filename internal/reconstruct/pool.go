package reconstruct

import (
	"yieldScope/internal/model"
	"yieldScope/internal/protocol"
)

const unknownIAsset = "unknown"

// PoolClassifier detects stability pool deposits, withdrawals and liquidations.
type PoolClassifier struct{}

func (PoolClassifier) Name() string   { return "stability_pool" }
func (PoolClassifier) Bucket() Bucket { return BucketStabilityPool }

func (PoolClassifier) Classify(tx TxContext) []model.Event {
	var events []model.Event
	in := tx.totalIn()

	for _, out := range tx.Utxos.Outputs {
		if !isPoolUtxo(out, tx.Filter) {
			continue
		}
		amount := parseLovelace(out.Value)
		if amount == 0 {
			continue
		}
		iasset := iassetOf(out)

		if amount >= in && in > 0 {
			burnt := unknownIAsset
			if iasset != nil {
				burnt = *iasset
			}
			events = append(events, tx.event(model.PoolLiquidation{
				IAssetBurnt:             burnt,
				AdaReceivedLovelace:     amount,
				RealizedPremiumLovelace: amount - in,
			}))
			continue
		}
		events = append(events, tx.event(model.PoolWithdraw{
			AmountLovelace: amount,
			IAsset:         iasset,
		}))
	}

	for _, input := range tx.Utxos.Inputs {
		if !isPoolUtxo(input, tx.Filter) {
			continue
		}
		amount := parseLovelace(input.Value)
		if amount == 0 {
			continue
		}
		events = append(events, tx.event(model.PoolDeposit{
			AmountLovelace: amount,
			IAsset:         iassetOf(input),
		}))
	}

	return events
}

// isPoolUtxo requires a matching datum and script credential and a first asset under a known iAsset policy.
func isPoolUtxo(u model.Utxo, filter protocol.FilterConfig) bool {
	if !filter.IsPoolDatum(u.DatumHash) || !filter.IsPoolScript(u.PaymentCredential) {
		return false
	}
	first, ok := u.FirstAsset()
	if !ok {
		return false
	}
	return filter.IsKnownIAssetPolicy(first.PolicyID)
}

func iassetOf(u model.Utxo) *string {
	first, ok := u.FirstAsset()
	if !ok {
		return nil
	}
	unit := first.Unit()
	return &unit
}
