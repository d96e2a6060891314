package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9985"

	defaultLedgerPath = "data/ledger.db"
	defaultAuditPath  = "data/audit.db"

	defaultQuotaLimit     = 5
	defaultQuotaPeriod    = "month"
	defaultWashTradeDays  = 30
	defaultLongTermAlloc  = 0.5
	defaultInitialCapital = 100000
	defaultMaxRetries     = 3

	defaultUniversePath = "configs/universe.yaml"

	defaultOracleProvider = "static"
	defaultOracleTimeout  = 10
	defaultOraclePath     = "price"

	// ET schedule: quota sweep shortly after midnight on day one of the
	// period, valuation refresh shortly after the close.
	defaultQuotaResetCron = "10 0 * * *"
	defaultValuationCron  = "30 16 * * 1-5"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Universe.applyDefaults(keys)
	c.Oracle.applyDefaults(keys)
	c.Scheduler.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("database.ledger_path", &d.LedgerPath, defaultLedgerPath),
		stringFieldDefault("database.audit_path", &d.AuditPath, defaultAuditPath),
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "trading.quota_limit",
			need:  func() bool { return t.QuotaLimit <= 0 },
			apply: func() { t.QuotaLimit = defaultQuotaLimit },
		},
		stringFieldDefault("trading.quota_period", &t.QuotaPeriod, defaultQuotaPeriod),
		fieldDefault{
			key:   "trading.wash_trade_days",
			need:  func() bool { return t.WashTradeDays <= 0 },
			apply: func() { t.WashTradeDays = defaultWashTradeDays },
		},
		fieldDefault{
			key:   "trading.long_term_allocation",
			need:  func() bool { return t.LongTermAllocation <= 0 },
			apply: func() { t.LongTermAllocation = defaultLongTermAlloc },
		},
		fieldDefault{
			key:   "trading.initial_capital",
			need:  func() bool { return t.InitialCapital <= 0 },
			apply: func() { t.InitialCapital = defaultInitialCapital },
		},
		fieldDefault{
			key:   "trading.enforce_trading_day",
			need:  func() bool { return true },
			apply: func() { t.EnforceTradingDay = true },
		},
		fieldDefault{
			key:   "trading.max_conflict_retries",
			need:  func() bool { return t.MaxConflictRetries <= 0 },
			apply: func() { t.MaxConflictRetries = defaultMaxRetries },
		},
	)
}

func (u *UniverseConfig) applyDefaults(keys keySet) {
	if u == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("universe.path", &u.Path, defaultUniversePath),
		fieldDefault{
			key:   "universe.watch",
			need:  func() bool { return true },
			apply: func() { u.Watch = true },
		},
	)
}

func (o *OracleConfig) applyDefaults(keys keySet) {
	if o == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("oracle.provider", &o.Provider, defaultOracleProvider),
		stringFieldDefault("oracle.price_path", &o.PricePath, defaultOraclePath),
		fieldDefault{
			key:   "oracle.timeout_seconds",
			need:  func() bool { return o.TimeoutSeconds <= 0 },
			apply: func() { o.TimeoutSeconds = defaultOracleTimeout },
		},
	)
}

func (s *SchedulerConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("scheduler.quota_reset_cron", &s.QuotaResetCron, defaultQuotaResetCron),
		stringFieldDefault("scheduler.valuation_cron", &s.ValuationCron, defaultValuationCron),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
