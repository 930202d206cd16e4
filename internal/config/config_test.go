package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstrading/scand/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
scan:
  triggers:
    frequent:
      kind: interval
      every: 5m
      categories: [DAY_TRADING, SHORT_SELLING]
  watchlist_by_category:
    DAY_TRADING: [RELIANCE, TCS]
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	s := cfg.Scan
	assert.Equal(t, DefaultParallelism, s.Parallelism)
	assert.Equal(t, DefaultEpochTimeout, s.EpochTimeout)
	assert.Equal(t, DefaultSymbolTimeout, s.SymbolTimeout)
	assert.Equal(t, DefaultCacheCapacity, s.CacheCapacity)
	assert.Equal(t, DefaultAutoThreshold, s.AutoThreshold)
	assert.Equal(t, "Asia/Kolkata", s.Timezone)
	assert.Equal(t, "09:15", s.SessionOpen)
	assert.Equal(t, "paper", s.Environment.Mode)
	assert.InDelta(t, 0.01, s.Risk.RiskPerTrade, 1e-9)
	assert.Equal(t, 20, s.Risk.MaxPositions)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_BROKER_KEY", "sekrit")
	body := minimalConfig + `
  broker:
    base_url: https://api.example.com/v1
    api_key: ${TEST_BROKER_KEY}
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "sekrit", cfg.Scan.Broker.APIKey)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+"\n  no_such_option: 1\n"))
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownCategoryInTrigger(t *testing.T) {
	body := `
scan:
  triggers:
    bad:
      kind: interval
      every: 5m
      categories: [SCALPING]
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestLoad_RejectsTriggerWithoutCategories(t *testing.T) {
	body := `
scan:
  triggers:
    bad:
      kind: interval
      every: 5m
`
	_, err := Load(writeConfig(t, body))
	assert.Error(t, err)
}

func TestLoad_RejectsMissingTriggers(t *testing.T) {
	_, err := Load(writeConfig(t, "scan:\n  parallelism: 3\n"))
	assert.Error(t, err)
}

func TestLoad_RejectsBadTimezone(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+"\n  timezone: Mars/Olympus\n"))
	assert.Error(t, err)
}

func TestTriggerSpecAndCategories(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	spec, err := cfg.Scan.TriggerSpec("frequent")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, spec.Every)

	cats := cfg.Scan.TriggerCategories("frequent")
	assert.Equal(t, []models.StrategyCategory{models.DayTrading, models.ShortSelling}, cats)

	_, err = cfg.Scan.TriggerSpec("nope")
	assert.Error(t, err)
}

func TestWatchlist(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, []string{"RELIANCE", "TCS"}, cfg.Scan.Watchlist(models.DayTrading))
	assert.Empty(t, cfg.Scan.Watchlist(models.LongTerm))
}

func TestDefaultTriggers_AllValid(t *testing.T) {
	for name, tc := range DefaultTriggers() {
		_, err := tc.toSpec(name)
		assert.NoError(t, err, name)
		for _, cat := range tc.Categories {
			assert.True(t, models.StrategyCategory(cat).Valid())
		}
	}
}
