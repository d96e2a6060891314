package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is an agent's cash, split across the long-term and short-term
// sub-accounts plus an untouchable reserve. The at-rest invariant is
// CashBalance == LongTermCash + ShortTermCash + ReservedCash.
type Wallet struct {
	AgentID        string
	CashBalance    decimal.Decimal
	LongTermCash   decimal.Decimal
	ShortTermCash  decimal.Decimal
	ReservedCash   decimal.Decimal
	TotalInvested  decimal.Decimal
	TotalWithdrawn decimal.Decimal
	UpdatedAt      time.Time
}

// AccountCash returns the balance of the sub-account a trade of the
// given position type settles against.
func (w Wallet) AccountCash(pt PositionType) decimal.Decimal {
	if pt == PositionLongTerm {
		return w.LongTermCash
	}
	return w.ShortTermCash
}

// Position is an open holding of one symbol. A position whose quantity
// reaches zero is deleted, never retained.
type Position struct {
	AgentID       string
	Symbol        string
	Quantity      int64
	AverageCost   decimal.Decimal
	PositionType  PositionType
	FirstBuyDate  time.Time
	CurrentValue  decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

// HoldingDays counts whole calendar days since the first purchase.
func (p Position) HoldingDays(today time.Time) int {
	first := time.Date(p.FirstBuyDate.Year(), p.FirstBuyDate.Month(), p.FirstBuyDate.Day(), 0, 0, 0, 0, time.UTC)
	now := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(now.Sub(first).Hours() / 24)
}

// Transaction is the immutable record of one executed decision.
type Transaction struct {
	ID            int64
	AgentID       string
	Symbol        string
	Action        Action
	Quantity      int64
	Price         decimal.Decimal
	TotalAmount   decimal.Decimal
	PositionType  PositionType
	DecisionID    string
	Reason        string
	MarketContext map[string]any
	ExecutedAt    time.Time
}

// TradeQuota caps the number of trades inside one accounting period.
// PeriodKey identifies the period the counter belongs to; a mismatch
// with the current period means Used is logically zero until the next
// commit writes the rollover.
type TradeQuota struct {
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	PeriodKey string `json:"period_key"`
}

// Remaining reports how many trades are left in the given period.
func (q TradeQuota) Remaining(currentPeriod string) int {
	used := q.Used
	if q.PeriodKey != currentPeriod {
		used = 0
	}
	if left := q.Limit - used; left > 0 {
		return left
	}
	return 0
}

// AgentState is the versioned per-agent control record. Version is the
// sole optimistic-concurrency token: every successful mutation bumps it
// by exactly one, and writers must present the version they read.
type AgentState struct {
	AgentID          string
	Version          int64
	TradeQuota       TradeQuota
	LongTermTarget   decimal.Decimal
	MarketView       string
	PortfolioSummary map[string]any
	UpdatedAt        time.Time
}

// Instrument is one entry of the tradable universe.
type Instrument struct {
	Symbol  string
	Name    string
	Type    string // "stock" or "etf"
	Enabled bool
}

// Snapshot is a consistent point-in-time read of everything a single
// validation/execution pass depends on. Position and Instrument are nil
// when absent.
type Snapshot struct {
	Wallet     Wallet
	Position   *Position
	State      AgentState
	Instrument *Instrument
	TakenAt    time.Time
}

// Receipt is the synchronous result of a successfully applied decision.
type Receipt struct {
	DecisionID     string          `json:"decision_id"`
	Applied        bool            `json:"applied"`
	Symbol         string          `json:"symbol"`
	Action         Action          `json:"action"`
	Quantity       int64           `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PositionQty    int64           `json:"resulting_position_qty"`
	ResultingCash  decimal.Decimal `json:"resulting_cash"`
	StateVersion   int64           `json:"state_version"`
	QuotaUsed      int             `json:"quota_used"`
	QuotaPeriodKey string          `json:"quota_period_key"`
	ExecutedAt     time.Time       `json:"executed_at"`
}
