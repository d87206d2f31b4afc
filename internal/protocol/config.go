package protocol

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ConfigPathEnv names the environment variable that points at a filter config file.
const ConfigPathEnv = "INDIGO_V2_CONFIG_PATH"

// DefaultConfigPaths are tried in order when ConfigPathEnv is unset or points nowhere.
var DefaultConfigPaths = []string{"./config/indigo_v2.json", "./indigo_v2.json"}

type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeStrict    Mode = "strict"
)

// FilterConfig holds on-chain identifiers that restrict event detection.
// An empty list accepts everything on that dimension.
type FilterConfig struct {
	PoolScriptHashes      []string `mapstructure:"stability_pool_script_hashes" json:"stability_pool_script_hashes,omitempty"`
	PoolDatumHashes       []string `mapstructure:"stability_pool_datum_hashes" json:"stability_pool_datum_hashes,omitempty"`
	IAssetPolicyIDs       []string `mapstructure:"iasset_policy_ids" json:"iasset_policy_ids,omitempty"`
	OrderBookScriptHashes []string `mapstructure:"rob_script_hashes" json:"rob_script_hashes,omitempty"`
	OrderBookDatumHashes  []string `mapstructure:"rob_datum_hashes" json:"rob_datum_hashes,omitempty"`
	StakingPolicyID       string   `mapstructure:"indy_policy_id" json:"indy_policy_id,omitempty"`
}

// Mode reports strict when any identifier is configured.
func (c FilterConfig) Mode() Mode {
	if len(c.PoolScriptHashes) == 0 &&
		len(c.PoolDatumHashes) == 0 &&
		len(c.IAssetPolicyIDs) == 0 &&
		len(c.OrderBookScriptHashes) == 0 &&
		len(c.OrderBookDatumHashes) == 0 &&
		normHex(c.StakingPolicyID) == "" {
		return ModeHeuristic
	}
	return ModeStrict
}

func (c FilterConfig) IsKnownIAssetPolicy(policyID string) bool {
	if len(c.IAssetPolicyIDs) == 0 {
		return true
	}
	return containsHex(c.IAssetPolicyIDs, policyID)
}

func (c FilterConfig) IsPoolDatum(datumHash *string) bool {
	return matchOptional(c.PoolDatumHashes, datumHash)
}

func (c FilterConfig) IsOrderBookDatum(datumHash *string) bool {
	return matchOptional(c.OrderBookDatumHashes, datumHash)
}

func (c FilterConfig) IsPoolScript(credential *string) bool {
	return matchOptional(c.PoolScriptHashes, credential)
}

func (c FilterConfig) IsOrderBookScript(credential *string) bool {
	return matchOptional(c.OrderBookScriptHashes, credential)
}

// HasStakingPolicy reports whether a staking token policy is configured.
func (c FilterConfig) HasStakingPolicy() bool {
	return normHex(c.StakingPolicyID) != ""
}

func (c FilterConfig) IsStakingPolicy(policyID string) bool {
	if !c.HasStakingPolicy() {
		return true
	}
	return normHex(policyID) == normHex(c.StakingPolicyID)
}

// matchOptional accepts anything for an empty list; a missing value only matches an empty list.
func matchOptional(list []string, value *string) bool {
	if len(list) == 0 {
		return true
	}
	if value == nil {
		return false
	}
	return containsHex(list, *value)
}

func containsHex(list []string, value string) bool {
	n := normHex(value)
	for _, item := range list {
		if normHex(item) == n {
			return true
		}
	}
	return false
}

func normHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "0x")
}

// LoadFromPath reads a JSON filter config. On any failure it returns an empty
// config alongside the error so callers can log and continue in heuristic mode.
func LoadFromPath(path string) (FilterConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return FilterConfig{}, fmt.Errorf("read filter config %s: %w", path, err)
	}

	var cfg FilterConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return FilterConfig{}, fmt.Errorf("parse filter config %s: %w", path, err)
	}
	return cfg, nil
}

// Discover returns the first existing config path: ConfigPathEnv, then DefaultConfigPaths.
// It returns "" when none exists.
func Discover() string {
	if path := strings.TrimSpace(os.Getenv(ConfigPathEnv)); path != "" && fileExists(path) {
		return path
	}
	for _, candidate := range DefaultConfigPaths {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// Load discovers and reads the filter config. A missing file is not an error.
func Load() (FilterConfig, string, error) {
	path := Discover()
	if path == "" {
		return FilterConfig{}, "", nil
	}
	cfg, err := LoadFromPath(path)
	return cfg, path, err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
