package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type WalletModel struct {
	AgentID        string          `gorm:"column:agent_id;primaryKey"`
	CashBalance    decimal.Decimal `gorm:"column:cash_balance;type:numeric(20,2);not null;default:0"`
	LongTermCash   decimal.Decimal `gorm:"column:long_term_cash;type:numeric(20,2);not null;default:0"`
	ShortTermCash  decimal.Decimal `gorm:"column:short_term_cash;type:numeric(20,2);not null;default:0"`
	ReservedCash   decimal.Decimal `gorm:"column:reserved_cash;type:numeric(20,2);not null;default:0"`
	TotalInvested  decimal.Decimal `gorm:"column:total_invested;type:numeric(20,2);not null;default:0"`
	TotalWithdrawn decimal.Decimal `gorm:"column:total_withdrawn;type:numeric(20,2);not null;default:0"`
	LastTradeAt    *time.Time      `gorm:"column:last_transaction_at"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (WalletModel) TableName() string { return "wallets" }

type PositionModel struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	AgentID       string          `gorm:"column:agent_id;uniqueIndex:idx_agent_symbol,priority:1;index"`
	Symbol        string          `gorm:"column:symbol;uniqueIndex:idx_agent_symbol,priority:2"`
	Quantity      int64           `gorm:"column:quantity;not null"`
	AverageCost   decimal.Decimal `gorm:"column:average_cost;type:numeric(20,6);not null"`
	PositionType  string          `gorm:"column:position_type;not null"`
	FirstBuyDate  time.Time       `gorm:"column:first_buy_date;not null"`
	CurrentValue  decimal.Decimal `gorm:"column:current_value;type:numeric(20,2);not null;default:0"`
	UnrealizedPnL decimal.Decimal `gorm:"column:unrealized_pnl;type:numeric(20,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (PositionModel) TableName() string { return "positions" }

type TransactionModel struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	AgentID       string          `gorm:"column:agent_id;index"`
	Symbol        string          `gorm:"column:symbol;index"`
	Action        string          `gorm:"column:action;not null"`
	Quantity      int64           `gorm:"column:quantity;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(20,6);not null"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(20,2);not null"`
	PositionType  string          `gorm:"column:position_type;not null"`
	DecisionID    string          `gorm:"column:decision_id;uniqueIndex"`
	Reason        string          `gorm:"column:reason"`
	MarketContext datatypes.JSON  `gorm:"column:market_context;type:TEXT"`
	ExecutedAt    time.Time       `gorm:"column:executed_at;index"`
}

func (TransactionModel) TableName() string { return "transactions" }

// AgentStateModel is the single point of serialization per agent. The
// quota is stored as named columns, not a JSON blob, so the period
// rollover stays queryable and migratable.
type AgentStateModel struct {
	AgentID          string          `gorm:"column:agent_id;primaryKey"`
	Version          int64           `gorm:"column:version;not null;default:1"`
	QuotaUsed        int             `gorm:"column:quota_used;not null;default:0"`
	QuotaLimit       int             `gorm:"column:quota_limit;not null;default:5"`
	QuotaPeriodKey   string          `gorm:"column:quota_period_key;not null;default:''"`
	LongTermTarget   decimal.Decimal `gorm:"column:long_term_allocation;type:numeric(6,4);not null;default:0"`
	MarketView       string          `gorm:"column:market_view"`
	PortfolioSummary datatypes.JSON  `gorm:"column:portfolio_summary;type:TEXT"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (AgentStateModel) TableName() string { return "agent_state" }
