package bundle

import (
	"sort"
	"time"

	"yieldScope/internal/compute"
	"yieldScope/internal/model"
)

// Version is the bundle format version.
const Version = 1

// Bundle is the evidence record for one address and run. Build it with New;
// it is not modified afterwards.
type Bundle struct {
	Version           int             `json:"version"`
	Address           string          `json:"address"`
	CreatedUTC        string          `json:"created_utc_rfc3339"`
	TxHashes          []string        `json:"tx_hashes"`
	InputRefs         []string        `json:"input_refs"`
	APIResponseHashes []string        `json:"api_response_hashes"`
	Events            model.EventSet  `json:"events"`
	Metrics           compute.Metrics `json:"metrics"`
	FetchedAtSlots    []uint64        `json:"fetched_at_slots"`
}

// Inputs are the raw materials of a bundle. Slices are copied, sorted and de-duplicated.
type Inputs struct {
	Address        string
	CreatedAt      time.Time
	TxHashes       []string
	InputRefs      []string
	ResponseHashes []string
	Events         model.EventSet
	Metrics        compute.Metrics
	Slots          []uint64
}

func New(in Inputs) Bundle {
	events := in.Events.Clone()
	events.Sort()

	return Bundle{
		Version:           Version,
		Address:           in.Address,
		CreatedUTC:        in.CreatedAt.UTC().Format(time.RFC3339),
		TxHashes:          sortedUnique(in.TxHashes),
		InputRefs:         sortedUnique(in.InputRefs),
		APIResponseHashes: sortedUnique(in.ResponseHashes),
		Events:            events,
		Metrics:           in.Metrics,
		FetchedAtSlots:    sortedUniqueSlots(in.Slots),
	}
}

func sortedUnique(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

func sortedUniqueSlots(slots []uint64) []uint64 {
	out := make([]uint64, 0, len(slots))
	seen := make(map[uint64]struct{}, len(slots))
	for _, s := range slots {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
