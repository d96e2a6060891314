// Package store defines the persistence contracts of the ledger core:
// point-in-time consistent snapshot reads and an atomic conditional
// multi-row write keyed on the agent-state version.
package store

import (
	"context"
	"time"

	"stockdesk/internal/types"

	"github.com/shopspring/decimal"
)

// AgentSeed describes the initial capital split used when an agent is
// created.
type AgentSeed struct {
	InitialCapital decimal.Decimal
	ReservedCash   decimal.Decimal
	LongTermShare  decimal.Decimal // 0..1 share of investable capital
	QuotaLimit     int
}

// PositionWrite is the position row change co-committed with a trade.
type PositionWrite struct {
	Kind         PositionWriteKind
	Symbol       string
	Quantity     int64
	AverageCost  decimal.Decimal
	PositionType types.PositionType
	FirstBuyDate time.Time
}

type PositionWriteKind int

const (
	PositionCreate PositionWriteKind = iota
	PositionUpdate
	PositionDelete
)

// TradeWrite is the full effect set of one accepted decision. The
// store applies every part as one unit, conditioned on ExpectedVersion
// still being the stored agent-state version; on mismatch it returns
// types.ErrVersionConflict and writes nothing.
type TradeWrite struct {
	AgentID         string
	ExpectedVersion int64

	CashDelta      decimal.Decimal
	LongTermDelta  decimal.Decimal
	ShortTermDelta decimal.Decimal
	InvestedDelta  decimal.Decimal
	WithdrawnDelta decimal.Decimal

	Position PositionWrite
	Quota    types.TradeQuota
	Tx       types.Transaction
}

// Ledger is the durable, versioned agent financial state.
type Ledger interface {
	// EnsureAgent creates wallet and agent state for agentID if absent.
	// Idempotent: an existing agent is left untouched.
	EnsureAgent(ctx context.Context, agentID string, seed AgentSeed) error

	// LoadSnapshot returns a consistent view of wallet, the position for
	// symbol (nil when none) and agent state with its version.
	LoadSnapshot(ctx context.Context, agentID, symbol string) (*types.Snapshot, error)

	// ApplyTrade commits a TradeWrite atomically. Returns the post-commit
	// agent-state version on success.
	ApplyTrade(ctx context.Context, w TradeWrite) (int64, error)

	// ResetQuota rolls the quota window forward for one agent using the
	// same compare-and-swap discipline as trades.
	ResetQuota(ctx context.Context, agentID, periodKey string) error

	// UpdateValuations refreshes current_value/unrealized_pnl on open
	// positions from the given prices. Not a trade: the agent-state
	// version is not touched.
	UpdateValuations(ctx context.Context, agentID string, prices map[string]decimal.Decimal) error

	// UpdateMarketView writes the free-form state fields through the
	// versioned path.
	UpdateMarketView(ctx context.Context, agentID string, version int64, view string, summary map[string]any) error

	Wallet(ctx context.Context, agentID string) (*types.Wallet, error)
	Positions(ctx context.Context, agentID string) ([]types.Position, error)
	Transactions(ctx context.Context, agentID string, limit int) ([]types.Transaction, error)
	AgentIDs(ctx context.Context) ([]string, error)

	Close() error
}

// Violation is one rejected proposal, written once and never read back
// by the core.
type Violation struct {
	AgentID         string
	ViolationType   types.ViolationType
	Rule            types.Rule
	AttemptedAction types.Decision
	Severity        string
	Reason          string
	DetectedAt      time.Time
}

// AuditLog records compliance violations, append-only.
type AuditLog interface {
	RecordViolation(ctx context.Context, v Violation) error
	RecentViolations(ctx context.Context, agentID string, since time.Time) ([]Violation, error)
	Close() error
}
