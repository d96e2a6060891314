// Package compliance implements the fixed-order rulebook every
// proposed trade must clear before it may touch the ledger. Rules are
// pure predicates over (decision, snapshot); the pipeline's only side
// effect is one audit row per rejection.
package compliance

import (
	"context"
	"time"

	"stockdesk/internal/calendar"
	"stockdesk/internal/logger"
	"stockdesk/internal/store"
	"stockdesk/internal/types"

	"github.com/shopspring/decimal"
)

// UniverseLookup answers whether a symbol is a listed instrument.
type UniverseLookup interface {
	Lookup(symbol string) (types.Instrument, bool)
}

// Params carries the rulebook constants.
type Params struct {
	WashTradeDays int
	QuotaPeriod   calendar.Period
	Clock         calendar.Clock
}

// Validator evaluates the ordered rule pipeline, short-circuiting on
// the first failure. Later rules never see a decision that already
// failed an earlier one.
type Validator struct {
	universe UniverseLookup
	audit    store.AuditLog
	params   Params
	rules    []rule
}

// checkInput is the common input every rule predicate sees.
type checkInput struct {
	dec       types.Decision
	price     decimal.Decimal
	snap      *types.Snapshot
	today     time.Time
	periodKey string
}

type rule struct {
	name  types.Rule
	check func(checkInput) *types.Rejection
}

func NewValidator(universe UniverseLookup, audit store.AuditLog, params Params) *Validator {
	if params.WashTradeDays <= 0 {
		params.WashTradeDays = 30
	}
	if params.Clock == nil {
		params.Clock = calendar.SystemClock()
	}
	v := &Validator{universe: universe, audit: audit, params: params}
	v.rules = []rule{
		{types.RuleUniverse, v.checkUniverse},
		{types.RuleQuota, v.checkQuota},
		{types.RuleBalance, v.checkBalance},
		{types.RuleAllocation, v.checkAllocation},
		{types.RuleWashTrade, v.checkWashTrade},
	}
	return v
}

// Validate runs the pipeline. It returns nil on acceptance (with no
// persisted effect) or a *types.Rejection after persisting exactly one
// violation row. It never mutates wallet, position or agent state.
func (v *Validator) Validate(ctx context.Context, execCtx types.ExecContext, dec types.Decision, price decimal.Decimal, snap *types.Snapshot) error {
	now := v.params.Clock.Now()
	in := checkInput{
		dec:       dec,
		price:     price,
		snap:      snap,
		today:     calendar.EasternDate(now),
		periodKey: calendar.PeriodKey(v.params.QuotaPeriod, now),
	}
	for _, r := range v.rules {
		rej := r.check(in)
		if rej == nil {
			continue
		}
		rej.Rule = r.name
		v.recordRejection(ctx, execCtx, dec, rej, now)
		return rej
	}
	logger.Debugf("decision %s accepted by compliance (%s %s x%d)", dec.DecisionID, dec.Action, dec.Symbol, dec.Quantity)
	return nil
}

// recordRejection is the pipeline's logging obligation: every rejection
// becomes a write-once violation row before control returns. Dry runs
// skip the write but keep the log line.
func (v *Validator) recordRejection(ctx context.Context, execCtx types.ExecContext, dec types.Decision, rej *types.Rejection, now time.Time) {
	logger.Warnf("decision %s rejected: %s (%s)", dec.DecisionID, rej.Violation, rej.Reason)
	if execCtx.DryRun || v.audit == nil {
		return
	}
	err := v.audit.RecordViolation(ctx, store.Violation{
		AgentID:         dec.AgentID,
		ViolationType:   rej.Violation,
		Rule:            rej.Rule,
		AttemptedAction: dec,
		Severity:        "blocked",
		Reason:          rej.Reason,
		DetectedAt:      now,
	})
	if err != nil {
		logger.Errorf("recording violation for %s failed: %v", dec.AgentID, err)
	}
}
