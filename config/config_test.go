package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "key")
	t.Setenv(EnvAPISecret, "secret")
	t.Setenv(EnvAsset, "ltc")
	t.Setenv(EnvCurrency, "eur")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "LTC", cfg.Asset, "codes are uppercased")
	assert.Equal(t, "EUR", cfg.Currency)
	assert.True(t, cfg.LowDiff.Equal(decimal.NewFromInt(2)))
	assert.True(t, cfg.HighDiff.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.False(t, cfg.Simulate)
	assert.Equal(t, defaultWALDir, cfg.WALDir)
	assert.Empty(t, cfg.LogFile)
}

func TestLoad_MissingRequired(t *testing.T) {
	keys := []string{EnvAPIKey, EnvAPISecret, EnvAsset, EnvCurrency}

	for _, missing := range keys {
		t.Run(missing, func(t *testing.T) {
			for _, key := range keys {
				if key == missing {
					t.Setenv(key, "")
				} else {
					t.Setenv(key, "value")
				}
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvLowDiff, "1.5")
	t.Setenv(EnvHighDiff, "3")
	t.Setenv(EnvPollIntervalMS, "2500")
	t.Setenv(EnvSimulate, "true")
	t.Setenv(EnvWALDir, "/tmp/ledger")
	t.Setenv(EnvLogFile, "/tmp/autotrader.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.LowDiff.Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, cfg.HighDiff.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 2500*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, "/tmp/ledger", cfg.WALDir)
	assert.Equal(t, "/tmp/autotrader.log", cfg.LogFile)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad threshold", func(t *testing.T) {
		setRequired(t)
		t.Setenv(EnvLowDiff, "not-a-number")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("non-positive poll interval", func(t *testing.T) {
		setRequired(t)
		t.Setenv(EnvPollIntervalMS, "0")

		_, err := Load()
		require.Error(t, err)
	})
}
