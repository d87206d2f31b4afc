package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldScope/internal/bundle"
	"yieldScope/internal/cache"
	"yieldScope/internal/chain"
	"yieldScope/internal/model"
	"yieldScope/internal/protocol"
	"yieldScope/internal/reconstruct"
)

const testAddress = "addr1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"

var frozen = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	accountTxs := fixture(t, "account_txs.json")
	utxos := map[string][]byte{
		"abc123def456": fixture(t, "tx_utxos_abc123.json"),
		"fed654cba321": fixture(t, "tx_utxos_fed654.json"),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/account_txs":
			_, _ = w.Write(accountTxs)
		case "/tx_utxos":
			body, ok := utxos[r.URL.Query().Get("_tx_hash")]
			if !ok {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(baseURL string, store cache.Store, offline bool) *chain.Client {
	return chain.NewClient(chain.Config{
		BaseURL:      baseURL,
		MaxRetries:   0,
		RetryBackoff: time.Millisecond,
		Timeout:      5 * time.Second,
		Offline:      offline,
	}, store, nil, nil)
}

type captureSink struct {
	events []model.Event
}

func (s *captureSink) PutEvents(events []model.Event) error {
	s.events = append(s.events, events...)
	return nil
}

func TestRunBuildsBundle(t *testing.T) {
	srv := newFixtureServer(t)
	sink := &captureSink{}
	runner := NewRunner(RunConfig{
		Address: testAddress,
		Now:     func() time.Time { return frozen },
	}, newClient(srv.URL, cache.NewMemoryStore(), false), reconstruct.NewEngine(protocol.FilterConfig{}, nil), sink, nil)

	res, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, FetchStats{Transactions: 3, WithUtxos: 2, Skipped: 1}, res.Stats)

	b := res.Bundle
	assert.Equal(t, testAddress, b.Address)
	assert.Equal(t, "2024-01-02T03:04:05Z", b.CreatedUTC)
	assert.Equal(t, []string{"0badc0ffee00", "abc123def456", "fed654cba321"}, b.TxHashes)
	assert.Equal(t, []uint64{100000, 100200, 100300}, b.FetchedAtSlots)
	assert.Len(t, b.APIResponseHashes, 3)
	assert.Subset(t, b.InputRefs, []string{"utxo:prev000#0", "utxo:prev001#1", "datum:d1", "datum:d2", "policy:p1"})

	require.Len(t, b.Events.StabilityPool, 2)
	deposit := b.Events.StabilityPool[0]
	assert.Equal(t, model.KindPoolDeposit, deposit.Kind())
	assert.Equal(t, "2023-11-14T22:13:20Z", deposit.Timestamp)
	assert.Equal(t, uint64(5_000_000), deposit.Payload.(model.PoolDeposit).AmountLovelace)

	liq, ok := b.Events.StabilityPool[1].Payload.(model.PoolLiquidation)
	require.True(t, ok)
	assert.Equal(t, uint64(1_100_000), liq.AdaReceivedLovelace)
	assert.Equal(t, uint64(100_000), liq.RealizedPremiumLovelace)

	m := b.Metrics
	assert.Equal(t, uint64(5_000_000), m.StabilityPool.TotalDepositsLovelace)
	assert.Equal(t, uint64(1), m.StabilityPool.LiquidationCount)
	assert.Equal(t, uint64(5_000_000), m.Rob.TotalPlacedLovelace)
	assert.Equal(t, uint64(1), m.Rob.FillCount)
	assert.Equal(t, uint64(100_000), m.IndyStaking.TotalRewardsLovelace)
	require.NotNil(t, m.Combined.AprPct)

	assert.Len(t, sink.events, b.Events.Len())
}

func TestRunReproducibleFromCache(t *testing.T) {
	srv := newFixtureServer(t)
	store := cache.NewMemoryStore()
	engine := reconstruct.NewEngine(protocol.FilterConfig{}, nil)
	cfg := RunConfig{Address: testAddress, Now: func() time.Time { return frozen }}

	online, err := NewRunner(cfg, newClient(srv.URL, store, false), engine, nil, nil).Run(context.Background())
	require.NoError(t, err)

	offlineClient := newClient("http://127.0.0.1:1", store, true)
	offline, err := NewRunner(cfg, offlineClient, engine, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), offlineClient.RequestCount())

	h1, err := bundle.Hash(online.Bundle)
	require.NoError(t, err)
	h2, err := bundle.Hash(offline.Bundle)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestFetchWarmsCache(t *testing.T) {
	srv := newFixtureServer(t)
	store := cache.NewMemoryStore()
	runner := NewRunner(RunConfig{Address: testAddress, Concurrency: 1}, newClient(srv.URL, store, false), nil, nil, nil)

	stats, err := runner.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Transactions)
	assert.Equal(t, 2, stats.WithUtxos)
	assert.Equal(t, 3, store.Len())
}

func TestOfflineColdCacheFails(t *testing.T) {
	client := newClient("http://127.0.0.1:1", cache.NewMemoryStore(), true)
	runner := NewRunner(RunConfig{Address: testAddress}, client, reconstruct.NewEngine(protocol.FilterConfig{}, nil), nil, nil)

	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrOfflineMiss)
	assert.Equal(t, uint64(0), client.RequestCount())
}

type stubFetcher struct {
	txs    []model.RawTransaction
	sets   map[string]model.TxUtxoSet
	txsErr error
	utxErr error
}

func (f *stubFetcher) AccountTxs(context.Context, string, string, string) ([]model.RawTransaction, error) {
	return f.txs, f.txsErr
}

func (f *stubFetcher) TxUtxos(_ context.Context, hash string) (model.TxUtxoSet, error) {
	if f.utxErr != nil {
		return model.TxUtxoSet{}, f.utxErr
	}
	set, ok := f.sets[hash]
	if !ok {
		return model.TxUtxoSet{}, errors.New("not found")
	}
	return set, nil
}

func (f *stubFetcher) ResponseHashes() []string { return nil }

func TestRunPeriodOverride(t *testing.T) {
	ts := int64(1_700_000_000)
	fetch := &stubFetcher{
		txs: []model.RawTransaction{{TxHash: "t1", BlockTime: &ts}},
		sets: map[string]model.TxUtxoSet{
			"t1": {TxHash: "t1", Outputs: []model.Utxo{{Value: "10"}}},
		},
	}
	start, end := int64(0), int64(31_557_600)
	position := uint64(100)
	runner := NewRunner(RunConfig{
		Address:         testAddress,
		PeriodStart:     &start,
		PeriodEnd:       &end,
		CurrentPosition: &position,
		Now:             func() time.Time { return frozen },
	}, fetch, reconstruct.NewEngine(protocol.FilterConfig{}, nil), nil, nil)

	res, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Bundle.Metrics.Combined.AprPct)
	assert.InDelta(t, 10.0, *res.Bundle.Metrics.Combined.AprPct, 1e-9)
}

func TestRunWithoutBlockTimes(t *testing.T) {
	fetch := &stubFetcher{txs: []model.RawTransaction{{TxHash: "t1"}}}
	runner := NewRunner(RunConfig{Address: testAddress, Now: func() time.Time { return frozen }},
		fetch, reconstruct.NewEngine(protocol.FilterConfig{}, nil), nil, nil)

	res, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Bundle.Metrics.Combined.AprPct)
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Empty(t, res.Bundle.FetchedAtSlots)
}

func TestRunCancelled(t *testing.T) {
	fetch := &stubFetcher{
		txs:    []model.RawTransaction{{TxHash: "t1"}, {TxHash: "t2"}},
		utxErr: context.Canceled,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(RunConfig{Address: testAddress}, fetch, reconstruct.NewEngine(protocol.FilterConfig{}, nil), nil, nil)
	_, err := runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRequiresAddress(t *testing.T) {
	runner := NewRunner(RunConfig{}, &stubFetcher{}, reconstruct.NewEngine(protocol.FilterConfig{}, nil), nil, nil)
	_, err := runner.Run(context.Background())
	require.Error(t, err)
}

func TestAccountTxsError(t *testing.T) {
	fetch := &stubFetcher{txsErr: errors.New("down")}
	runner := NewRunner(RunConfig{Address: testAddress}, fetch, reconstruct.NewEngine(protocol.FilterConfig{}, nil), nil, nil)
	_, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account txs")
}
