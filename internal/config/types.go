package config

import "strings"

// Config is the top-level stockdesk configuration.
type Config struct {
	App       AppConfig       `toml:"app"`
	Database  DatabaseConfig  `toml:"database"`
	Trading   TradingConfig   `toml:"trading"`
	Universe  UniverseConfig  `toml:"universe"`
	Oracle    OracleConfig    `toml:"oracle"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

type DatabaseConfig struct {
	LedgerPath string `toml:"ledger_path"`
	AuditPath  string `toml:"audit_path"`
}

// TradingConfig carries the rulebook knobs: quota window, wash-trade
// holding period and the fixed long/short capital split.
type TradingConfig struct {
	QuotaLimit         int     `toml:"quota_limit"`
	QuotaPeriod        string  `toml:"quota_period"` // "month" | "week"
	WashTradeDays      int     `toml:"wash_trade_days"`
	LongTermAllocation float64 `toml:"long_term_allocation"` // 0..1 share of initial capital
	InitialCapital     float64 `toml:"initial_capital"`
	ReservedCash       float64 `toml:"reserved_cash"`
	EnforceTradingDay  bool    `toml:"enforce_trading_day"`
	MaxConflictRetries int     `toml:"max_conflict_retries"`
}

type UniverseConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// OracleConfig selects the price source. "static" serves the inline
// price table (tests, offline runs), "http" polls a JSON endpoint,
// "yahoo" uses the public quote API.
type OracleConfig struct {
	Provider       string             `toml:"provider"` // "static" | "http" | "yahoo"
	BaseURL        string             `toml:"base_url"`
	PricePath      string             `toml:"price_path"` // gjson path into the response body
	TimeoutSeconds int                `toml:"timeout_seconds"`
	Static         map[string]float64 `toml:"static"`
}

func (o OracleConfig) NormalizedProvider() string {
	return strings.ToLower(strings.TrimSpace(o.Provider))
}

type SchedulerConfig struct {
	Enabled        bool   `toml:"enabled"`
	QuotaResetCron string `toml:"quota_reset_cron"`
	ValuationCron  string `toml:"valuation_cron"`
}

// keySet tracks config paths that were set explicitly in the file, so
// defaults never clobber an intentional zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
