package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "app:\n  env: test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9985", cfg.App.HTTPAddr)
	assert.Equal(t, "data/ledger.db", cfg.Database.LedgerPath)
	assert.Equal(t, 5, cfg.Trading.QuotaLimit)
	assert.Equal(t, "month", cfg.Trading.QuotaPeriod)
	assert.Equal(t, 30, cfg.Trading.WashTradeDays)
	assert.InDelta(t, 0.5, cfg.Trading.LongTermAllocation, 1e-9)
	assert.InDelta(t, 100000, cfg.Trading.InitialCapital, 1e-9)
	assert.True(t, cfg.Trading.EnforceTradingDay)
	assert.Equal(t, 3, cfg.Trading.MaxConflictRetries)
	assert.True(t, cfg.Universe.Watch)
	assert.Equal(t, "static", cfg.Oracle.Provider)
	assert.Equal(t, "10 0 * * *", cfg.Scheduler.QuotaResetCron)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	content := `
trading:
  quota_limit: 2
  quota_period: week
  wash_trade_days: 14
  enforce_trading_day: false
universe:
  watch: false
`
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", content))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Trading.QuotaLimit)
	assert.Equal(t, "week", cfg.Trading.QuotaPeriod)
	assert.Equal(t, 14, cfg.Trading.WashTradeDays)
	assert.False(t, cfg.Trading.EnforceTradingDay, "explicit false must survive defaulting")
	assert.False(t, cfg.Universe.Watch)
}

func TestLoadIncludes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "trading:\n  quota_limit: 7\n  wash_trade_days: 10\n")
	main := writeConfig(t, dir, "config.yaml", "include:\n  - base.yaml\ntrading:\n  wash_trade_days: 20\n")

	cfg, err := Load(main)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Trading.QuotaLimit, "included value survives")
	assert.Equal(t, 20, cfg.Trading.WashTradeDays, "including file overrides the fragment")
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include:\n  - a.yaml\n")

	_, err := Load(filepath.Join(dir, "a.yaml"))
	assert.ErrorContains(t, err, "cycle")
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad quota period":      "trading:\n  quota_period: quarter\n",
		"allocation over one":   "trading:\n  long_term_allocation: 1.5\n",
		"reserved over capital": "trading:\n  initial_capital: 1000\n  reserved_cash: 2000\n",
		"unknown oracle":        "oracle:\n  provider: telepathy\n",
		"http without base url": "oracle:\n  provider: http\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, dir, name+".yaml", content))
			assert.Error(t, err)
		})
	}
}
