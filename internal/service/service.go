// Package service is the synchronous intake for external trade
// proposals: resolve a price, snapshot the agent, run compliance,
// execute, and absorb optimistic-concurrency conflicts with a bounded
// number of fresh-snapshot retries.
package service

import (
	"context"
	"errors"
	"fmt"

	"stockdesk/internal/calendar"
	"stockdesk/internal/compliance"
	"stockdesk/internal/ledger"
	"stockdesk/internal/logger"
	"stockdesk/internal/oracle"
	"stockdesk/internal/store"
	"stockdesk/internal/types"

	"github.com/shopspring/decimal"
)

// Params bundles the rulebook/bootstrap settings the service needs.
type Params struct {
	QuotaLimit         int
	QuotaPeriod        calendar.Period
	InitialCapital     decimal.Decimal
	ReservedCash       decimal.Decimal
	LongTermShare      decimal.Decimal
	EnforceTradingDay  bool
	MaxConflictRetries int
	Clock              calendar.Clock
}

type Desk struct {
	ledgerStore store.Ledger
	audit       store.AuditLog
	validator   *compliance.Validator
	executor    *ledger.Executor
	prices      oracle.PriceOracle
	params      Params
}

func NewDesk(ledgerStore store.Ledger, audit store.AuditLog, validator *compliance.Validator, executor *ledger.Executor, prices oracle.PriceOracle, params Params) *Desk {
	if params.MaxConflictRetries <= 0 {
		params.MaxConflictRetries = 3
	}
	if params.Clock == nil {
		params.Clock = calendar.SystemClock()
	}
	return &Desk{
		ledgerStore: ledgerStore,
		audit:       audit,
		validator:   validator,
		executor:    executor,
		prices:      prices,
		params:      params,
	}
}

// CreateAgent provisions wallet and state for a new agent. Idempotent.
func (d *Desk) CreateAgent(ctx context.Context, agentID string) error {
	return d.ledgerStore.EnsureAgent(ctx, agentID, store.AgentSeed{
		InitialCapital: d.params.InitialCapital,
		ReservedCash:   d.params.ReservedCash,
		LongTermShare:  d.params.LongTermShare,
		QuotaLimit:     d.params.QuotaLimit,
	})
}

// Submit runs one decision through the full pipeline. Returns the
// receipt on success, a *types.Rejection for compliance failures, and
// types.ErrVersionConflict only after the retry budget is exhausted.
func (d *Desk) Submit(ctx context.Context, execCtx types.ExecContext, dec types.Decision) (*types.Receipt, error) {
	dec.Normalize()
	if err := dec.CheckBasic(); err != nil {
		return nil, err
	}
	if d.params.EnforceTradingDay && !execCtx.DryRun && !calendar.IsTradingDay(d.params.Clock.Now()) {
		return nil, fmt.Errorf("%w: decision %s submitted outside a trading day", types.ErrMarketClosed, dec.DecisionID)
	}

	price, err := d.resolvePrice(ctx, dec)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= d.params.MaxConflictRetries; attempt++ {
		snap, err := d.ledgerStore.LoadSnapshot(ctx, dec.AgentID, dec.Symbol)
		if err != nil {
			return nil, err
		}
		// The snapshot may be stale by commit time; validation runs fresh
		// on every attempt because its outcome can legitimately change.
		if err := d.validator.Validate(ctx, execCtx, dec, price, snap); err != nil {
			return nil, err
		}
		receipt, err := d.executor.Execute(ctx, execCtx, dec, price, snap)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, types.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		logger.Warnf("version conflict for %s on attempt %d/%d, re-reading snapshot", dec.AgentID, attempt, d.params.MaxConflictRetries)
	}
	return nil, lastErr
}

func (d *Desk) resolvePrice(ctx context.Context, dec types.Decision) (decimal.Decimal, error) {
	if dec.PriceHint != nil && dec.PriceHint.IsPositive() {
		return *dec.PriceHint, nil
	}
	price, err := d.prices.GetPrice(ctx, dec.Symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolving price for %s: %w", dec.Symbol, err)
	}
	return price, nil
}
