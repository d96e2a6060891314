package types

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the store and service layers.
var (
	// ErrVersionConflict: the agent-state version moved between snapshot
	// and commit. Retryable with a fresh snapshot.
	ErrVersionConflict = errors.New("agent state version conflict")

	ErrAgentNotFound    = errors.New("agent not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrMarketClosed     = errors.New("market closed")
)

// Rule identifies one compliance rule in the fixed evaluation order.
type Rule string

const (
	RuleUniverse   Rule = "UNIVERSE"
	RuleQuota      Rule = "QUOTA"
	RuleBalance    Rule = "BALANCE"
	RuleAllocation Rule = "ALLOCATION"
	RuleWashTrade  Rule = "WASH_TRADE"
)

// ViolationType tags a rejected proposal for the audit trail.
type ViolationType string

const (
	ViolationUniverse             ViolationType = "UNIVERSE_VIOLATION"
	ViolationQuotaExceeded        ViolationType = "QUOTA_EXCEEDED"
	ViolationInsufficientFunds    ViolationType = "INSUFFICIENT_FUNDS"
	ViolationInsufficientPosition ViolationType = "INSUFFICIENT_POSITION"
	ViolationAllocation           ViolationType = "ALLOCATION_VIOLATION"
	ViolationWashTrade            ViolationType = "WASH_TRADE"
)

// Rejection is a non-retryable validation failure: the proposal is dead
// and the caller must submit a different one. It is distinguishable
// from ErrVersionConflict so callers know whether retrying the same
// decision can ever succeed.
type Rejection struct {
	Rule      Rule
	Violation ViolationType
	Reason    string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("decision rejected by %s rule: %s", r.Rule, r.Reason)
}

// AsRejection unwraps err into a *Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
