package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// VerifyConfig holds configuration for the verify command.
type VerifyConfig struct {
	Bundle string
	// Events is an optional JSONL event log to cross-check against the bundle.
	Events string
	// PGDSN enables the archive fallback when the bundle has no hash file.
	PGDSN    string
	LogLevel string
}

func LoadVerify(cfgFile string, flags *pflag.FlagSet) (VerifyConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return VerifyConfig{}, err
	}
	cfg := VerifyConfig{
		Bundle:   v.GetString("bundle"),
		Events:   v.GetString("events"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.Bundle == "" {
		return VerifyConfig{}, fmt.Errorf("bundle path is required")
	}
	return cfg, nil
}
