package model

import "sort"

// EventSet groups reconstructed events by protocol feature.
type EventSet struct {
	StabilityPool []Event `json:"stability_pool"`
	Rob           []Event `json:"rob"`
	IndyStaking   []Event `json:"indy_staking"`
	Other         []Event `json:"other"`
}

// All returns every event, buckets concatenated in a fixed order.
func (s EventSet) All() []Event {
	out := make([]Event, 0, s.Len())
	out = append(out, s.StabilityPool...)
	out = append(out, s.Rob...)
	out = append(out, s.IndyStaking...)
	out = append(out, s.Other...)
	return out
}

func (s EventSet) Len() int {
	return len(s.StabilityPool) + len(s.Rob) + len(s.IndyStaking) + len(s.Other)
}

// Sort orders every bucket by slot (missing slot counts as 0), then tx hash, then kind.
func (s *EventSet) Sort() {
	sortEvents(s.StabilityPool)
	sortEvents(s.Rob)
	sortEvents(s.IndyStaking)
	sortEvents(s.Other)
}

// Clone returns a copy whose bucket slices do not alias s.
func (s EventSet) Clone() EventSet {
	return EventSet{
		StabilityPool: cloneEvents(s.StabilityPool),
		Rob:           cloneEvents(s.Rob),
		IndyStaking:   cloneEvents(s.IndyStaking),
		Other:         cloneEvents(s.Other),
	}
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		as, bs := slotOrZero(a.Slot), slotOrZero(b.Slot)
		if as != bs {
			return as < bs
		}
		if a.TxHash != b.TxHash {
			return a.TxHash < b.TxHash
		}
		return a.Kind() < b.Kind()
	})
}

func slotOrZero(slot *uint64) uint64 {
	if slot == nil {
		return 0
	}
	return *slot
}

func cloneEvents(events []Event) []Event {
	if events == nil {
		return []Event{}
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
