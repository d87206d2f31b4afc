package protocol

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEmptyConfigAcceptsEverything(t *testing.T) {
	var cfg FilterConfig
	assert.Equal(t, ModeHeuristic, cfg.Mode())
	assert.True(t, cfg.IsKnownIAssetPolicy("anything"))
	assert.True(t, cfg.IsPoolDatum(nil))
	assert.True(t, cfg.IsPoolDatum(strPtr("abc")))
	assert.True(t, cfg.IsOrderBookDatum(nil))
	assert.True(t, cfg.IsPoolScript(nil))
	assert.True(t, cfg.IsStakingPolicy("p"))
	assert.False(t, cfg.HasStakingPolicy())
}

func TestStrictMatchingNormalizesHex(t *testing.T) {
	cfg := FilterConfig{
		IAssetPolicyIDs:      []string{" 0xF66D78B4A3CB3D37AFA0EC36461E51ECBDE00F26C8F0A68F94B69880 "},
		PoolDatumHashes:      []string{"AbCd"},
		OrderBookDatumHashes: []string{"0x1234"},
		StakingPolicyID:      "533BB94A8850EE3CCBE483106489399112B74C905342CB1792A797A0",
	}
	assert.Equal(t, ModeStrict, cfg.Mode())

	assert.True(t, cfg.IsKnownIAssetPolicy("f66d78b4a3cb3d37afa0ec36461e51ecbde00f26c8f0a68f94b69880"))
	assert.False(t, cfg.IsKnownIAssetPolicy("f66d78"))

	assert.True(t, cfg.IsPoolDatum(strPtr("0xabcd")))
	assert.False(t, cfg.IsPoolDatum(strPtr("abce")))
	assert.False(t, cfg.IsPoolDatum(nil))

	assert.True(t, cfg.IsOrderBookDatum(strPtr("1234")))
	assert.False(t, cfg.IsOrderBookDatum(nil))

	assert.True(t, cfg.IsStakingPolicy("0x533bb94a8850ee3ccbe483106489399112b74c905342cb1792a797a0"))
	assert.False(t, cfg.IsStakingPolicy("deadbeef"))

	// Unset dimensions stay permissive.
	assert.True(t, cfg.IsPoolScript(nil))
	assert.True(t, cfg.IsOrderBookScript(strPtr("x")))
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indigo_v2.json")
	doc := `{
		"stability_pool_datum_hashes": ["aa", "bb"],
		"iasset_policy_ids": ["p1"],
		"rob_script_hashes": [],
		"indy_policy_id": "indy"
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "bb"}, cfg.PoolDatumHashes)
	assert.Equal(t, []string{"p1"}, cfg.IAssetPolicyIDs)
	assert.Empty(t, cfg.OrderBookScriptHashes)
	assert.Equal(t, "indy", cfg.StakingPolicyID)
	assert.Equal(t, ModeStrict, cfg.Mode())
}

func TestLoadFromPathFailuresYieldEmpty(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))

	for _, path := range []string{bad, filepath.Join(dir, "missing.json")} {
		cfg, err := LoadFromPath(path)
		assert.Error(t, err)
		assert.Equal(t, FilterConfig{}, cfg)
		assert.Equal(t, ModeHeuristic, cfg.Mode())
	}
}

func TestDiscoverPrefersEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rob_datum_hashes":["r1"]}`), 0o644))

	t.Setenv(ConfigPathEnv, path)
	cfg, source, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Equal(t, []string{"r1"}, cfg.OrderBookDatumHashes)
}

func TestDiscoverFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv(ConfigPathEnv, filepath.Join(dir, "does-not-exist.json"))
	assert.Equal(t, "", Discover())

	require.NoError(t, os.WriteFile("indigo_v2.json", []byte(`{}`), 0o644))
	assert.Equal(t, "./indigo_v2.json", Discover())

	require.NoError(t, os.MkdirAll("config", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("config", "indigo_v2.json"), []byte(`{}`), 0o644))
	assert.Equal(t, "./config/indigo_v2.json", Discover())
}
