package chain

// Koios response shapes. Only the fields the reconstruction needs are decoded.

type accountTx struct {
	TxHash      string  `json:"tx_hash"`
	BlockHeight *uint64 `json:"block_height"`
	BlockTime   *int64  `json:"block_time"`
	EpochNo     *uint64 `json:"epoch_no"`
	SlotNo      *uint64 `json:"slot_no"`
	AbsSlot     *uint64 `json:"abs_slot"`
}

type paymentAddr struct {
	Bech32 string `json:"bech32"`
	Cred   string `json:"cred"`
}

type asset struct {
	PolicyID  string `json:"policy_id"`
	AssetName string `json:"asset_name"`
	Quantity  string `json:"quantity"`
}

type utxo struct {
	TxHash      string       `json:"tx_hash"`
	TxIndex     uint32       `json:"tx_index"`
	Value       string       `json:"value"`
	DatumHash   *string      `json:"datum_hash"`
	PaymentAddr *paymentAddr `json:"payment_addr"`
	AssetList   []asset      `json:"asset_list"`
}

type txUtxos struct {
	TxHash  string `json:"tx_hash"`
	Inputs  []utxo `json:"inputs"`
	Outputs []utxo `json:"outputs"`
}
