// Package ledger turns an accepted decision into one atomic state
// transition: wallet, position, transaction log and quota move together
// or not at all, keyed on the agent-state version the caller's snapshot
// observed.
package ledger

import (
	"context"
	"fmt"

	"stockdesk/internal/calendar"
	"stockdesk/internal/logger"
	"stockdesk/internal/pkg/money"
	"stockdesk/internal/store"
	"stockdesk/internal/types"

	"github.com/shopspring/decimal"
)

type Executor struct {
	ledger store.Ledger
	period calendar.Period
	clock  calendar.Clock
}

func NewExecutor(ledger store.Ledger, period calendar.Period, clock calendar.Clock) *Executor {
	if clock == nil {
		clock = calendar.SystemClock()
	}
	return &Executor{ledger: ledger, period: period, clock: clock}
}

// Execute applies an already-accepted decision. The write is
// conditioned on the snapshot's agent-state version; a mismatch
// surfaces as types.ErrVersionConflict with no partial effects, and the
// caller must re-snapshot (and may re-validate) before retrying.
// With execCtx.DryRun the receipt is computed but nothing is written.
func (e *Executor) Execute(ctx context.Context, execCtx types.ExecContext, dec types.Decision, price decimal.Decimal, snap *types.Snapshot) (*types.Receipt, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("ledger: non-positive execution price for %s", dec.Symbol)
	}
	now := e.clock.Now()
	total := money.Round(price.Mul(decimal.NewFromInt(dec.Quantity)))

	w := store.TradeWrite{
		AgentID:         dec.AgentID,
		ExpectedVersion: snap.State.Version,
		Quota:           rollQuota(snap.State.TradeQuota, calendar.PeriodKey(e.period, now)),
		Tx: types.Transaction{
			AgentID:       dec.AgentID,
			Symbol:        dec.Symbol,
			Action:        dec.Action,
			Quantity:      dec.Quantity,
			Price:         price,
			TotalAmount:   total,
			DecisionID:    dec.DecisionID,
			Reason:        dec.Reasoning,
			MarketContext: dec.MarketContext,
		},
	}

	var positionQty int64
	switch dec.Action {
	case types.ActionBuy:
		positionQty = e.planBuy(&w, dec, price, total, snap)
	case types.ActionSell:
		qty, err := e.planSell(&w, dec, total, snap)
		if err != nil {
			return nil, err
		}
		positionQty = qty
	default:
		return nil, fmt.Errorf("ledger: unsupported action %q", dec.Action)
	}

	receipt := &types.Receipt{
		DecisionID:     dec.DecisionID,
		Applied:        false,
		Symbol:         dec.Symbol,
		Action:         dec.Action,
		Quantity:       dec.Quantity,
		Price:          price,
		TotalAmount:    total,
		PositionQty:    positionQty,
		ResultingCash:  snap.Wallet.CashBalance.Add(w.CashDelta),
		StateVersion:   snap.State.Version + 1,
		QuotaUsed:      w.Quota.Used,
		QuotaPeriodKey: w.Quota.PeriodKey,
		ExecutedAt:     now,
	}
	if execCtx.DryRun {
		logger.Infof("dry run: %s %s x%d for %s would commit at version %d", dec.Action, dec.Symbol, dec.Quantity, dec.AgentID, receipt.StateVersion)
		return receipt, nil
	}

	version, err := e.ledger.ApplyTrade(ctx, w)
	if err != nil {
		return nil, err
	}
	receipt.Applied = true
	receipt.StateVersion = version
	logger.Infof("executed %s %s x%d @ %s for %s (version %d, quota %d/%d)",
		dec.Action, dec.Symbol, dec.Quantity, price.StringFixed(2), dec.AgentID, version, w.Quota.Used, w.Quota.Limit)
	return receipt, nil
}

// planBuy fills the wallet deltas and position write for a purchase.
// The matching sub-account is debited; cost basis becomes the
// quantity-weighted average when adding to an existing position.
func (e *Executor) planBuy(w *store.TradeWrite, dec types.Decision, price, total decimal.Decimal, snap *types.Snapshot) int64 {
	w.CashDelta = total.Neg()
	w.InvestedDelta = total
	if dec.PositionType == types.PositionLongTerm {
		w.LongTermDelta = total.Neg()
	} else {
		w.ShortTermDelta = total.Neg()
	}
	w.Tx.PositionType = dec.PositionType

	pos := snap.Position
	if pos == nil {
		w.Position = store.PositionWrite{
			Kind:         store.PositionCreate,
			Symbol:       dec.Symbol,
			Quantity:     dec.Quantity,
			AverageCost:  price,
			PositionType: dec.PositionType,
			FirstBuyDate: calendar.EasternDate(e.clock.Now()),
		}
		return dec.Quantity
	}
	newQty := pos.Quantity + dec.Quantity
	w.Position = store.PositionWrite{
		Kind:        store.PositionUpdate,
		Symbol:      dec.Symbol,
		Quantity:    newQty,
		AverageCost: money.WeightedAverage(pos.Quantity, pos.AverageCost, dec.Quantity, price),
		// first_buy_date and position_type stay untouched
		PositionType: pos.PositionType,
		FirstBuyDate: pos.FirstBuyDate,
	}
	return newQty
}

// planSell fills the wallet deltas and position write for a sale. The
// position's own account is credited; cost basis never changes on a
// partial sell, and a position sold to zero is deleted.
func (e *Executor) planSell(w *store.TradeWrite, dec types.Decision, total decimal.Decimal, snap *types.Snapshot) (int64, error) {
	pos := snap.Position
	if pos == nil {
		return 0, fmt.Errorf("%w: %s", types.ErrPositionNotFound, dec.Symbol)
	}
	if pos.Quantity < dec.Quantity {
		return 0, fmt.Errorf("%w: %s holds %d, sell of %d", types.ErrPositionNotFound, dec.Symbol, pos.Quantity, dec.Quantity)
	}
	w.CashDelta = total
	w.WithdrawnDelta = total
	if pos.PositionType == types.PositionLongTerm {
		w.LongTermDelta = total
	} else {
		w.ShortTermDelta = total
	}
	w.Tx.PositionType = pos.PositionType

	newQty := pos.Quantity - dec.Quantity
	if newQty == 0 {
		w.Position = store.PositionWrite{Kind: store.PositionDelete, Symbol: dec.Symbol}
		return 0, nil
	}
	w.Position = store.PositionWrite{
		Kind:         store.PositionUpdate,
		Symbol:       dec.Symbol,
		Quantity:     newQty,
		AverageCost:  pos.AverageCost,
		PositionType: pos.PositionType,
		FirstBuyDate: pos.FirstBuyDate,
	}
	return newQty, nil
}

// rollQuota counts this trade against the current period, rolling the
// window forward transactionally when the stored key is stale.
func rollQuota(q types.TradeQuota, currentKey string) types.TradeQuota {
	if q.PeriodKey != currentKey {
		return types.TradeQuota{Used: 1, Limit: q.Limit, PeriodKey: currentKey}
	}
	return types.TradeQuota{Used: q.Used + 1, Limit: q.Limit, PeriodKey: q.PeriodKey}
}
