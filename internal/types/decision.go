package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action is the direction of a proposed trade.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// PositionType selects which of the two per-agent cash pools a trade
// settles against. It is fixed at position creation and never changes.
type PositionType string

const (
	PositionLongTerm  PositionType = "LONG_TERM"
	PositionShortTerm PositionType = "SHORT_TERM"
)

func (p PositionType) Valid() bool {
	return p == PositionLongTerm || p == PositionShortTerm
}

// Decision is a structured trade proposal produced by an external
// reasoning collaborator. The core never generates decisions, it only
// judges and applies them.
type Decision struct {
	AgentID      string           `json:"agent_id"`
	Symbol       string           `json:"symbol"`
	Action       Action           `json:"action"`
	Quantity     int64            `json:"quantity"`
	PositionType PositionType     `json:"position_type"`
	DecisionID   string           `json:"decision_id,omitempty"`
	PriceHint    *decimal.Decimal `json:"price_hint,omitempty"`
	Reasoning    string           `json:"reasoning,omitempty"`

	// MarketContext is carried verbatim into the transaction record.
	MarketContext map[string]any `json:"market_context,omitempty"`
}

// Normalize trims identifiers, upper-cases the symbol and assigns a
// decision id when the caller did not provide one.
func (d *Decision) Normalize() {
	d.AgentID = strings.TrimSpace(d.AgentID)
	d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))
	d.Action = Action(strings.ToUpper(strings.TrimSpace(string(d.Action))))
	d.PositionType = PositionType(strings.ToUpper(strings.TrimSpace(string(d.PositionType))))
	if strings.TrimSpace(d.DecisionID) == "" {
		d.DecisionID = uuid.NewString()
	}
}

// CheckBasic rejects structurally malformed decisions before any state
// is read. Business rules live in the compliance package.
func (d *Decision) CheckBasic() error {
	if d.AgentID == "" {
		return fmt.Errorf("decision: agent_id is required")
	}
	if d.Symbol == "" {
		return fmt.Errorf("decision: symbol is required")
	}
	if d.Action != ActionBuy && d.Action != ActionSell {
		return fmt.Errorf("decision: invalid action %q", d.Action)
	}
	if d.Quantity <= 0 {
		return fmt.Errorf("decision: quantity must be > 0, got %d", d.Quantity)
	}
	if !d.PositionType.Valid() {
		return fmt.Errorf("decision: invalid position_type %q", d.PositionType)
	}
	if d.PriceHint != nil && !d.PriceHint.IsPositive() {
		return fmt.Errorf("decision: price_hint must be positive")
	}
	return nil
}

// ExecContext carries execution capabilities through the validate and
// execute path. DryRun suppresses every persisted side effect (violation
// rows included) while still returning the receipt that would have been
// produced.
type ExecContext struct {
	DryRun bool
}
