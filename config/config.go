// Package config loads the autotrader settings from environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Environment keys. The exchange credentials and the traded pair are
// required; everything else has a default.
const (
	EnvAPIKey         = "EXCHANGE_API_KEY"
	EnvAPISecret      = "EXCHANGE_API_SECRET"
	EnvAsset          = "TRADE_ASSET"
	EnvCurrency       = "TRADE_CURRENCY"
	EnvLowDiff        = "LOW_DIFF"
	EnvHighDiff       = "HIGH_DIFF"
	EnvPollIntervalMS = "POLL_INTERVAL_MS"
	EnvSimulate       = "SIMULATE"
	EnvWALDir         = "WAL_DIR"
	EnvLogFile        = "LOG_FILE"
)

const (
	defaultDiff           = "2"
	defaultPollIntervalMS = 10000
	defaultWALDir         = "./wal/orders"
)

// Config stores all settings of the process.
type Config struct {
	APIKey    string
	APISecret string
	Asset     string
	Currency  string

	// LowDiff is the buy threshold margin, HighDiff the sell one.
	LowDiff  decimal.Decimal
	HighDiff decimal.Decimal

	PollInterval time.Duration
	Simulate     bool

	// WALDir is where the pending-order ledger lives.
	WALDir string
	// LogFile enables an additional rotating log sink when non-empty.
	LogFile string
}

// Load reads the configuration from the environment. A missing required key
// aborts startup.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvLowDiff, defaultDiff)
	v.SetDefault(EnvHighDiff, defaultDiff)
	v.SetDefault(EnvPollIntervalMS, defaultPollIntervalMS)
	v.SetDefault(EnvSimulate, false)
	v.SetDefault(EnvWALDir, defaultWALDir)

	for _, key := range []string{EnvAPIKey, EnvAPISecret, EnvAsset, EnvCurrency} {
		if v.GetString(key) == "" {
			return Config{}, errors.Errorf("missing environment variable %s", key)
		}
	}

	lowDiff, err := decimal.NewFromString(v.GetString(EnvLowDiff))
	if err != nil {
		return Config{}, errors.Wrapf(err, "invalid %s", EnvLowDiff)
	}
	highDiff, err := decimal.NewFromString(v.GetString(EnvHighDiff))
	if err != nil {
		return Config{}, errors.Wrapf(err, "invalid %s", EnvHighDiff)
	}

	pollIntervalMS := v.GetInt(EnvPollIntervalMS)
	if pollIntervalMS <= 0 {
		return Config{}, errors.Errorf("invalid %s: must be a positive number of milliseconds", EnvPollIntervalMS)
	}

	return Config{
		APIKey:       v.GetString(EnvAPIKey),
		APISecret:    v.GetString(EnvAPISecret),
		Asset:        strings.ToUpper(v.GetString(EnvAsset)),
		Currency:     strings.ToUpper(v.GetString(EnvCurrency)),
		LowDiff:      lowDiff,
		HighDiff:     highDiff,
		PollInterval: time.Duration(pollIntervalMS) * time.Millisecond,
		Simulate:     v.GetBool(EnvSimulate),
		WALDir:       v.GetString(EnvWALDir),
		LogFile:      v.GetString(EnvLogFile),
	}, nil
}
