package reconstruct

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldScope/internal/model"
	"yieldScope/internal/protocol"
)

var fixedNow = time.Unix(1_700_000_000, 0)

func u64(v uint64) *uint64 { return &v }
func i64(v int64) *int64   { return &v }
func str(s string) *string { return &s }

func iassetUtxo(tx string, idx uint32, value string) model.Utxo {
	return model.Utxo{
		TxHash:  tx,
		TxIndex: idx,
		Value:   value,
		AssetList: []model.Asset{
			{PolicyID: "f66d78b4a3cb3d37afa0ec36461e51ecbde00f26c8f0a68f94b69880", AssetName: "69555344", Quantity: "10"},
		},
	}
}

func plainUtxo(tx string, idx uint32, value string) model.Utxo {
	return model.Utxo{TxHash: tx, TxIndex: idx, Value: value}
}

func reconstructOne(t *testing.T, filter protocol.FilterConfig, tx model.RawTransaction, set model.TxUtxoSet) model.EventSet {
	t.Helper()
	engine := NewEngine(filter, nil)
	return engine.Reconstruct([]model.RawTransaction{tx}, MapLookup(map[string]model.TxUtxoSet{tx.TxHash: set}), fixedNow)
}

func TestDepositScenario(t *testing.T) {
	tx := model.RawTransaction{TxHash: "dep1", SlotNo: u64(100000), BlockTime: i64(1_699_000_000)}
	set := model.TxUtxoSet{Inputs: []model.Utxo{iassetUtxo("prev", 0, "5000000")}}

	events := reconstructOne(t, protocol.FilterConfig{}, tx, set)

	require.Len(t, events.StabilityPool, 1)
	ev := events.StabilityPool[0]
	dep, ok := ev.Payload.(model.PoolDeposit)
	require.True(t, ok, "expected deposit, got %T", ev.Payload)
	assert.Equal(t, uint64(5_000_000), dep.AmountLovelace)
	require.NotNil(t, dep.IAsset)
	assert.Equal(t, "dep1", ev.TxHash)
	assert.Equal(t, uint64(100000), *ev.Slot)
	assert.Equal(t, "2023-11-03T08:26:40Z", ev.Timestamp)
}

func TestLiquidationScenario(t *testing.T) {
	tx := model.RawTransaction{TxHash: "liq1", SlotNo: u64(200)}
	set := model.TxUtxoSet{
		Inputs:  []model.Utxo{plainUtxo("prev", 0, "1000000")},
		Outputs: []model.Utxo{iassetUtxo("liq1", 0, "1100000")},
	}

	events := reconstructOne(t, protocol.FilterConfig{}, tx, set)

	require.Len(t, events.StabilityPool, 1)
	liq, ok := events.StabilityPool[0].Payload.(model.PoolLiquidation)
	require.True(t, ok, "expected liquidation, got %T", events.StabilityPool[0].Payload)
	assert.Equal(t, uint64(1_100_000), liq.AdaReceivedLovelace)
	assert.Equal(t, uint64(100_000), liq.RealizedPremiumLovelace)
	assert.Equal(t, "f66d78b4a3cb3d37afa0ec36461e51ecbde00f26c8f0a68f94b69880.69555344", liq.IAssetBurnt)
	assert.Equal(t, fixedNow.UTC().Format(time.RFC3339), events.StabilityPool[0].Timestamp)
}

func TestPoolOutputWithoutInputsIsWithdrawal(t *testing.T) {
	tx := model.RawTransaction{TxHash: "w0"}
	set := model.TxUtxoSet{Outputs: []model.Utxo{iassetUtxo("w0", 0, "3000000")}}

	events := reconstructOne(t, protocol.FilterConfig{}, tx, set)

	require.Len(t, events.StabilityPool, 1)
	w, ok := events.StabilityPool[0].Payload.(model.PoolWithdraw)
	require.True(t, ok)
	assert.Equal(t, uint64(3_000_000), w.AmountLovelace)
}

func TestPoolOutputBelowInputsIsWithdrawal(t *testing.T) {
	tx := model.RawTransaction{TxHash: "w1"}
	set := model.TxUtxoSet{
		Inputs:  []model.Utxo{plainUtxo("prev", 0, "2000000")},
		Outputs: []model.Utxo{iassetUtxo("w1", 0, "1500000"), plainUtxo("w1", 1, "400000")},
	}

	events := reconstructOne(t, protocol.FilterConfig{}, tx, set)

	require.Len(t, events.StabilityPool, 1)
	_, ok := events.StabilityPool[0].Payload.(model.PoolWithdraw)
	assert.True(t, ok)
	assert.Empty(t, events.Rob)
	assert.Empty(t, events.IndyStaking)
}

func TestLiquidationPremiumNeverExceedsReceived(t *testing.T) {
	values := []string{"1", "999", "1000000", "18446744073709551615"}
	for _, in := range values {
		for _, out := range values {
			set := model.TxUtxoSet{
				Inputs:  []model.Utxo{plainUtxo("p", 0, in)},
				Outputs: []model.Utxo{iassetUtxo("x", 0, out)},
			}
			events := reconstructOne(t, protocol.FilterConfig{}, model.RawTransaction{TxHash: "x"}, set)
			for _, ev := range events.StabilityPool {
				if liq, ok := ev.Payload.(model.PoolLiquidation); ok {
					assert.LessOrEqual(t, liq.RealizedPremiumLovelace, liq.AdaReceivedLovelace)
				}
			}
		}
	}
}

func TestStrictPoolDatumFilter(t *testing.T) {
	filter := protocol.FilterConfig{PoolDatumHashes: []string{"0xAAAA"}}

	matching := iassetUtxo("prev", 0, "5000000")
	matching.DatumHash = str("aaaa")
	other := iassetUtxo("prev", 1, "7000000")
	other.DatumHash = str("bbbb")
	missing := iassetUtxo("prev", 2, "9000000")

	set := model.TxUtxoSet{Inputs: []model.Utxo{matching, other, missing}}
	events := reconstructOne(t, filter, model.RawTransaction{TxHash: "s1"}, set)

	require.Len(t, events.StabilityPool, 1)
	dep := events.StabilityPool[0].Payload.(model.PoolDeposit)
	assert.Equal(t, uint64(5_000_000), dep.AmountLovelace)
}

func TestStrictIAssetPolicyFilter(t *testing.T) {
	filter := protocol.FilterConfig{IAssetPolicyIDs: []string{"someotherpolicy"}}
	set := model.TxUtxoSet{Inputs: []model.Utxo{iassetUtxo("prev", 0, "5000000")}}

	events := reconstructOne(t, filter, model.RawTransaction{TxHash: "s2"}, set)
	assert.Empty(t, events.StabilityPool)
}

func TestOrderFill(t *testing.T) {
	set := model.TxUtxoSet{
		Inputs:  []model.Utxo{plainUtxo("p", 0, "1000000")},
		Outputs: []model.Utxo{plainUtxo("f", 0, "1100000")},
	}
	events := reconstructOne(t, protocol.FilterConfig{}, model.RawTransaction{TxHash: "f"}, set)

	require.Len(t, events.Rob, 1)
	fill, ok := events.Rob[0].Payload.(model.OrderFill)
	require.True(t, ok)
	assert.Equal(t, uint64(1_100_000), fill.FilledLovelace)
	require.NotNil(t, fill.PremiumPct)
	assert.InDelta(t, 10.0, *fill.PremiumPct, 1e-9)
	assert.Equal(t, *fill.PremiumPct, *fill.ReimbursementPct)

	require.Len(t, events.IndyStaking, 1)
	reward := events.IndyStaking[0].Payload.(model.StakingReward)
	assert.Equal(t, uint64(100_000), reward.AmountLovelace)
}

func TestOrderPlacement(t *testing.T) {
	set := model.TxUtxoSet{Inputs: []model.Utxo{plainUtxo("p", 0, "4000000")}}
	events := reconstructOne(t, protocol.FilterConfig{}, model.RawTransaction{TxHash: "pl"}, set)

	require.Len(t, events.Rob, 1)
	place, ok := events.Rob[0].Payload.(model.OrderPlace)
	require.True(t, ok)
	assert.Equal(t, uint64(4_000_000), place.AmountLovelace)
	assert.Empty(t, events.StabilityPool)
}

func TestOrderBookNoShape(t *testing.T) {
	set := model.TxUtxoSet{
		Inputs:  []model.Utxo{plainUtxo("p", 0, "4000000")},
		Outputs: []model.Utxo{plainUtxo("o", 0, "3800000")},
	}
	events := reconstructOne(t, protocol.FilterConfig{}, model.RawTransaction{TxHash: "n"}, set)
	assert.Equal(t, 0, events.Len())
}

func TestStakingEpochAndStrictPolicy(t *testing.T) {
	tx := model.RawTransaction{TxHash: "r1", EpochNo: u64(450)}
	set := model.TxUtxoSet{
		Inputs:  []model.Utxo{plainUtxo("p", 0, "1000000")},
		Outputs: []model.Utxo{plainUtxo("r1", 0, "1500000")},
	}

	events := reconstructOne(t, protocol.FilterConfig{}, tx, set)
	require.Len(t, events.IndyStaking, 1)
	reward := events.IndyStaking[0].Payload.(model.StakingReward)
	assert.Equal(t, uint64(500_000), reward.AmountLovelace)
	assert.Equal(t, uint64(450), *reward.Epoch)

	strict := protocol.FilterConfig{StakingPolicyID: "indypolicy"}
	events = reconstructOne(t, strict, tx, set)
	assert.Empty(t, events.IndyStaking)

	set.Outputs[0].AssetList = []model.Asset{{PolicyID: "INDYPOLICY", AssetName: "494e4459", Quantity: "5"}}
	events = reconstructOne(t, strict, tx, set)
	assert.Len(t, events.IndyStaking, 1)
}

func TestMissingUtxoSetSkippedAndDuplicatesIgnored(t *testing.T) {
	engine := NewEngine(protocol.FilterConfig{}, nil)
	txs := []model.RawTransaction{
		{TxHash: "known"},
		{TxHash: "unknown"},
		{TxHash: "known"},
	}
	sets := map[string]model.TxUtxoSet{
		"known": {Inputs: []model.Utxo{iassetUtxo("p", 0, "5000000")}},
	}

	events := engine.Reconstruct(txs, MapLookup(sets), fixedNow)
	require.Len(t, events.StabilityPool, 1)
	require.Len(t, events.Rob, 1)
	for _, ev := range events.All() {
		assert.Equal(t, "known", ev.TxHash)
	}
}

func TestEmptyInput(t *testing.T) {
	engine := NewEngine(protocol.FilterConfig{}, nil)
	events := engine.Reconstruct(nil, MapLookup(nil), fixedNow)
	assert.Equal(t, 0, events.Len())
	assert.NotNil(t, events.StabilityPool)
	assert.Equal(t, protocol.ModeHeuristic, engine.Mode())
}

func TestReconstructPermutationInvariant(t *testing.T) {
	txs := []model.RawTransaction{
		{TxHash: "aa", SlotNo: u64(300), BlockTime: i64(1_700_000_300)},
		{TxHash: "bb", SlotNo: u64(100), BlockTime: i64(1_700_000_100)},
		{TxHash: "cc", BlockTime: i64(1_700_000_050)},
		{TxHash: "dd", SlotNo: u64(100), EpochNo: u64(451)},
		{TxHash: "ee", SlotNo: u64(200)},
	}
	sets := map[string]model.TxUtxoSet{
		"aa": {Inputs: []model.Utxo{plainUtxo("p", 0, "1000000")}, Outputs: []model.Utxo{iassetUtxo("aa", 0, "1100000")}},
		"bb": {Inputs: []model.Utxo{iassetUtxo("p", 1, "5000000"), iassetUtxo("p", 2, "6000000")}},
		"cc": {Inputs: []model.Utxo{plainUtxo("p", 3, "2000000")}, Outputs: []model.Utxo{iassetUtxo("cc", 0, "1500000")}},
		"dd": {Inputs: []model.Utxo{plainUtxo("p", 4, "1000")}, Outputs: []model.Utxo{plainUtxo("dd", 0, "2000")}},
		"ee": {Outputs: []model.Utxo{plainUtxo("ee", 0, "700")}},
	}
	engine := NewEngine(protocol.FilterConfig{}, nil)
	want := engine.Reconstruct(txs, MapLookup(sets), fixedNow)
	require.Greater(t, want.Len(), 5)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.RawTransaction(nil), txs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := engine.Reconstruct(shuffled, MapLookup(sets), fixedNow)
		require.Equal(t, want, got, "permutation %d", i)
	}
}

func TestParseLovelace(t *testing.T) {
	cases := map[string]uint64{
		"1000000":              1_000_000,
		" 42 ":                 42,
		"0":                    0,
		"":                     0,
		"-5":                   0,
		"1.5":                  0,
		"abc":                  0,
		"18446744073709551615": math.MaxUint64,
		"18446744073709551616": 0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLovelace(in), "input %q", in)
	}
}

func TestSumLovelaceSaturates(t *testing.T) {
	utxos := []model.Utxo{
		plainUtxo("a", 0, "18446744073709551615"),
		plainUtxo("a", 1, "10"),
	}
	assert.Equal(t, uint64(math.MaxUint64), sumLovelace(utxos, nil))
}
