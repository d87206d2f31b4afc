package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EventKind names a reconstructed protocol event.
type EventKind string

const (
	KindPoolDeposit     EventKind = "stability_pool_deposit"
	KindPoolWithdraw    EventKind = "stability_pool_withdraw"
	KindPoolLiquidation EventKind = "stability_pool_liquidation"
	KindOrderPlace      EventKind = "rob_order_place"
	KindOrderFill       EventKind = "rob_order_fill"
	KindOrderCooldown   EventKind = "rob_cooldown"
	KindStakingReward   EventKind = "indy_staking_reward"
	KindPoolPremium     EventKind = "indy_sp_premium"
	KindOtherFlow       EventKind = "other_flow"
)

// Payload is the kind-specific body of an Event. The set of implementations is closed.
type Payload interface {
	Kind() EventKind
	isPayload()
}

type PoolDeposit struct {
	AmountLovelace uint64  `json:"amount_lovelace"`
	IAsset         *string `json:"iasset_amount"`
}

type PoolWithdraw struct {
	AmountLovelace uint64  `json:"amount_lovelace"`
	IAsset         *string `json:"iasset_amount"`
}

// PoolLiquidation records ADA paid out to depositors when debt positions were liquidated.
// RealizedPremiumLovelace never exceeds AdaReceivedLovelace.
type PoolLiquidation struct {
	IAssetBurnt             string  `json:"iasset_burnt"`
	AdaReceivedLovelace     uint64  `json:"ada_received_lovelace"`
	RealizedPremiumLovelace uint64  `json:"realized_premium_lovelace"`
	DilutionEffect          *string `json:"dilution_effect"`
}

type OrderPlace struct {
	OrderID        *string `json:"order_id"`
	AmountLovelace uint64  `json:"amount_lovelace"`
}

type OrderFill struct {
	OrderID          *string  `json:"order_id"`
	FilledLovelace   uint64   `json:"filled_lovelace"`
	PremiumPct       *float64 `json:"premium_pct"`
	ReimbursementPct *float64 `json:"reimbursement_pct"`
}

type OrderCooldown struct {
	InferredFromTx bool `json:"inferred_from_tx"`
}

type StakingReward struct {
	AmountLovelace uint64  `json:"amount_lovelace"`
	Epoch          *uint64 `json:"epoch"`
}

type PoolPremium struct {
	AmountLovelace uint64 `json:"amount_lovelace"`
}

type OtherFlow struct {
	Description    string  `json:"description"`
	AmountLovelace *uint64 `json:"amount_lovelace"`
}

func (PoolDeposit) Kind() EventKind     { return KindPoolDeposit }
func (PoolWithdraw) Kind() EventKind    { return KindPoolWithdraw }
func (PoolLiquidation) Kind() EventKind { return KindPoolLiquidation }
func (OrderPlace) Kind() EventKind      { return KindOrderPlace }
func (OrderFill) Kind() EventKind       { return KindOrderFill }
func (OrderCooldown) Kind() EventKind   { return KindOrderCooldown }
func (StakingReward) Kind() EventKind   { return KindStakingReward }
func (PoolPremium) Kind() EventKind     { return KindPoolPremium }
func (OtherFlow) Kind() EventKind       { return KindOtherFlow }

func (PoolDeposit) isPayload()     {}
func (PoolWithdraw) isPayload()    {}
func (PoolLiquidation) isPayload() {}
func (OrderPlace) isPayload()      {}
func (OrderFill) isPayload()       {}
func (OrderCooldown) isPayload()   {}
func (StakingReward) isPayload()   {}
func (PoolPremium) isPayload()     {}
func (OtherFlow) isPayload()       {}

// Event is one reconstructed economic event tied to the transaction it came from.
// Timestamp is RFC 3339 in UTC.
type Event struct {
	Payload   Payload         `json:"-"`
	Timestamp string          `json:"timestamp"`
	Slot      *uint64         `json:"slot"`
	TxHash    string          `json:"tx_hash"`
	Extra     json.RawMessage `json:"extra,omitempty"`
}

// Kind returns the payload kind, or an empty kind for a zero Event.
func (e Event) Kind() EventKind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

type eventJSON struct {
	Kind      json.RawMessage `json:"kind"`
	Timestamp string          `json:"timestamp"`
	Slot      *uint64         `json:"slot"`
	TxHash    string          `json:"tx_hash"`
	Extra     json.RawMessage `json:"extra,omitempty"`
}

// MarshalJSON writes the payload as a "kind"-tagged object under the "kind" key.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event %s has no payload", e.TxHash)
	}
	kind, err := encodePayload(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventJSON{
		Kind:      kind,
		Timestamp: e.Timestamp,
		Slot:      e.Slot,
		TxHash:    e.TxHash,
		Extra:     e.Extra,
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := decodePayload(raw.Kind)
	if err != nil {
		return err
	}
	*e = Event{
		Payload:   payload,
		Timestamp: raw.Timestamp,
		Slot:      raw.Slot,
		TxHash:    raw.TxHash,
		Extra:     raw.Extra,
	}
	return nil
}

func encodePayload(p Payload) (json.RawMessage, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", p.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("marshal %s: %w", p.Kind(), err)
	}
	fields["kind"] = json.RawMessage(strconv.Quote(string(p.Kind())))
	return json.Marshal(fields)
}

func decodePayload(data json.RawMessage) (Payload, error) {
	var tag struct {
		Kind EventKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode event kind: %w", err)
	}

	switch tag.Kind {
	case KindPoolDeposit:
		return decodeAs[PoolDeposit](data)
	case KindPoolWithdraw:
		return decodeAs[PoolWithdraw](data)
	case KindPoolLiquidation:
		return decodeAs[PoolLiquidation](data)
	case KindOrderPlace:
		return decodeAs[OrderPlace](data)
	case KindOrderFill:
		return decodeAs[OrderFill](data)
	case KindOrderCooldown:
		return decodeAs[OrderCooldown](data)
	case KindStakingReward:
		return decodeAs[StakingReward](data)
	case KindPoolPremium:
		return decodeAs[PoolPremium](data)
	case KindOtherFlow:
		return decodeAs[OtherFlow](data)
	default:
		return nil, fmt.Errorf("unknown event kind %q", tag.Kind)
	}
}

func decodeAs[T Payload](data json.RawMessage) (Payload, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.Kind(), err)
	}
	return p, nil
}
