package reconstruct

import (
	"yieldScope/internal/model"
)

// StakingClassifier treats a net ADA gain across a transaction as a staking reward.
// With a staking policy configured, the transaction must also output that token.
type StakingClassifier struct{}

func (StakingClassifier) Name() string   { return "indy_staking" }
func (StakingClassifier) Bucket() Bucket { return BucketIndyStaking }

func (StakingClassifier) Classify(tx TxContext) []model.Event {
	if tx.Filter.HasStakingPolicy() && !carriesStakingToken(tx) {
		return nil
	}

	in, out := tx.totalIn(), tx.totalOut()
	if out <= in {
		return nil
	}

	var epoch *uint64
	if tx.Tx.EpochNo != nil {
		v := *tx.Tx.EpochNo
		epoch = &v
	}
	return []model.Event{tx.event(model.StakingReward{
		AmountLovelace: out - in,
		Epoch:          epoch,
	})}
}

func carriesStakingToken(tx TxContext) bool {
	for _, out := range tx.Utxos.Outputs {
		for _, a := range out.AssetList {
			if tx.Filter.IsStakingPolicy(a.PolicyID) {
				return true
			}
		}
	}
	return false
}
