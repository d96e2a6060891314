package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Oracle.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TradingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(t.QuotaPeriod)) {
	case "month", "week":
	default:
		return fmt.Errorf("trading.quota_period must be month or week")
	}
	if t.LongTermAllocation < 0 || t.LongTermAllocation > 1 {
		return fmt.Errorf("trading.long_term_allocation must be within [0,1]")
	}
	if t.ReservedCash < 0 {
		return fmt.Errorf("trading.reserved_cash must be >= 0")
	}
	if t.ReservedCash >= t.InitialCapital {
		return fmt.Errorf("trading.reserved_cash must be below trading.initial_capital")
	}
	return nil
}

func (o *OracleConfig) validate() error {
	switch o.NormalizedProvider() {
	case "static", "yahoo":
	case "http":
		if strings.TrimSpace(o.BaseURL) == "" {
			return fmt.Errorf("oracle.base_url is required for the http provider")
		}
	default:
		return fmt.Errorf("oracle.provider must be static, http or yahoo")
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if strings.TrimSpace(d.LedgerPath) == "" {
		return fmt.Errorf("database.ledger_path cannot be empty")
	}
	if strings.TrimSpace(d.AuditPath) == "" {
		return fmt.Errorf("database.audit_path cannot be empty")
	}
	return nil
}
