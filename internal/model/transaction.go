package model

// RawTransaction is a transaction reference as returned by the account history endpoint.
type RawTransaction struct {
	TxHash      string  `json:"tx_hash"`
	BlockHeight *uint64 `json:"block_height,omitempty"`
	BlockTime   *int64  `json:"block_time,omitempty"`
	EpochNo     *uint64 `json:"epoch_no,omitempty"`
	SlotNo      *uint64 `json:"slot_no,omitempty"`
}

// Asset is a native token quantity attached to a UTXO.
type Asset struct {
	PolicyID  string `json:"policy_id"`
	AssetName string `json:"asset_name"`
	Quantity  string `json:"quantity"`
}

// Unit returns policy and asset name joined as "policy.asset".
func (a Asset) Unit() string {
	if a.AssetName == "" {
		return a.PolicyID
	}
	return a.PolicyID + "." + a.AssetName
}

// Utxo is a single transaction output, spent or produced.
type Utxo struct {
	TxHash            string  `json:"tx_hash"`
	TxIndex           uint32  `json:"tx_index"`
	Value             string  `json:"value"`
	DatumHash         *string `json:"datum_hash,omitempty"`
	PaymentCredential *string `json:"payment_cred,omitempty"`
	AssetList         []Asset `json:"asset_list,omitempty"`
}

// FirstAsset returns the first native asset, if any.
func (u Utxo) FirstAsset() (Asset, bool) {
	if len(u.AssetList) == 0 {
		return Asset{}, false
	}
	return u.AssetList[0], true
}

// TxUtxoSet holds the inputs consumed and outputs produced by one transaction.
type TxUtxoSet struct {
	TxHash  string `json:"tx_hash,omitempty"`
	Inputs  []Utxo `json:"inputs"`
	Outputs []Utxo `json:"outputs"`
}
