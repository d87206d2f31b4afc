package chain

import "yieldScope/internal/model"

func buildRawTransaction(tx accountTx) model.RawTransaction {
	slot := tx.SlotNo
	if slot == nil {
		slot = tx.AbsSlot
	}
	return model.RawTransaction{
		TxHash:      tx.TxHash,
		BlockHeight: tx.BlockHeight,
		BlockTime:   tx.BlockTime,
		EpochNo:     tx.EpochNo,
		SlotNo:      slot,
	}
}

func buildUtxo(u utxo) model.Utxo {
	out := model.Utxo{
		TxHash:    u.TxHash,
		TxIndex:   u.TxIndex,
		Value:     u.Value,
		DatumHash: u.DatumHash,
	}
	if u.PaymentAddr != nil && u.PaymentAddr.Cred != "" {
		cred := u.PaymentAddr.Cred
		out.PaymentCredential = &cred
	}
	if len(u.AssetList) > 0 {
		out.AssetList = make([]model.Asset, 0, len(u.AssetList))
		for _, a := range u.AssetList {
			out.AssetList = append(out.AssetList, model.Asset{
				PolicyID:  a.PolicyID,
				AssetName: a.AssetName,
				Quantity:  a.Quantity,
			})
		}
	}
	return out
}

func buildTxUtxoSet(txHash string, raw txUtxos) model.TxUtxoSet {
	set := model.TxUtxoSet{
		TxHash:  txHash,
		Inputs:  make([]model.Utxo, 0, len(raw.Inputs)),
		Outputs: make([]model.Utxo, 0, len(raw.Outputs)),
	}
	for _, in := range raw.Inputs {
		set.Inputs = append(set.Inputs, buildUtxo(in))
	}
	for _, out := range raw.Outputs {
		set.Outputs = append(set.Outputs, buildUtxo(out))
	}
	return set
}
