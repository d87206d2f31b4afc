package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"yieldScope/internal/chain"
)

const envPrefix = "YIELDSCOPE"

// FetchConfig holds the settings shared by every command that talks to the upstream API.
type FetchConfig struct {
	Address         string
	From            string
	To              string
	BaseURL         string
	CacheDir        string
	PGDSN           string
	Offline         bool
	MinInterval     time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	Timeout         time.Duration
	Concurrency     int
	MetricsTextfile string
	LogLevel        string
}

// CachePath is the SQLite cache file inside CacheDir.
func (c FetchConfig) CachePath() string {
	return filepath.Join(c.CacheDir, "cache.sqlite")
}

// Client converts the settings into a chain client configuration.
func (c FetchConfig) Client() chain.Config {
	return chain.Config{
		BaseURL:      c.BaseURL,
		MinInterval:  c.MinInterval,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		Timeout:      c.Timeout,
		Offline:      c.Offline,
	}
}

// Load merges .env, config file, environment variables, and flags into FetchConfig.
func Load(cfgFile string, flags *pflag.FlagSet) (FetchConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return FetchConfig{}, err
	}
	return fetchConfig(v), nil
}

func fetchConfig(v *viper.Viper) FetchConfig {
	return FetchConfig{
		Address:         strings.TrimSpace(v.GetString("address")),
		From:            strings.TrimSpace(v.GetString("from")),
		To:              strings.TrimSpace(v.GetString("to")),
		BaseURL:         v.GetString("base-url"),
		CacheDir:        v.GetString("cache-dir"),
		PGDSN:           v.GetString("pg-dsn"),
		Offline:         v.GetBool("offline"),
		MinInterval:     v.GetDuration("min-interval"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		Timeout:         v.GetDuration("timeout"),
		Concurrency:     v.GetInt("concurrency"),
		MetricsTextfile: v.GetString("metrics-textfile"),
		LogLevel:        v.GetString("log-level"),
	}
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	defaults := chain.DefaultConfig()
	v.SetDefault("base-url", defaults.BaseURL)
	v.SetDefault("cache-dir", "./data/cache")
	v.SetDefault("min-interval", defaults.MinInterval)
	v.SetDefault("max-retries", defaults.MaxRetries)
	v.SetDefault("retry-backoff", defaults.RetryBackoff)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("concurrency", 4)
	v.SetDefault("reports-dir", "./reports")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("yieldscope")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// loadDotEnv exports variables from path when the file exists. Variables already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
