package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ComputeConfig holds configuration for the compute command.
type ComputeConfig struct {
	FetchConfig

	ReportsDir      string
	EventsOut       string
	ProtocolConfig  string
	Demo            bool
	PeriodStart     *int64
	PeriodEnd       *int64
	CurrentPosition *uint64
}

// LoadCompute merges .env, config file, environment variables, and flags into ComputeConfig.
func LoadCompute(cfgFile string, flags *pflag.FlagSet) (ComputeConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ComputeConfig{}, err
	}

	cfg := ComputeConfig{
		FetchConfig:    fetchConfig(v),
		ReportsDir:     v.GetString("reports-dir"),
		EventsOut:      v.GetString("events-out"),
		ProtocolConfig: v.GetString("protocol-config"),
		Demo:           v.GetBool("demo"),
	}

	if cfg.PeriodStart, err = optionalTimestamp(v.GetString("period-start")); err != nil {
		return ComputeConfig{}, fmt.Errorf("period-start: %w", err)
	}
	if cfg.PeriodEnd, err = optionalTimestamp(v.GetString("period-end")); err != nil {
		return ComputeConfig{}, fmt.Errorf("period-end: %w", err)
	}
	if raw := strings.TrimSpace(v.GetString("position")); raw != "" {
		pos, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return ComputeConfig{}, fmt.Errorf("position: %w", err)
		}
		cfg.CurrentPosition = &pos
	}
	return cfg, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseInt(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return tm.Unix(), nil
}

func optionalTimestamp(input string) (*int64, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	ts, err := ParseTimestamp(input)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
