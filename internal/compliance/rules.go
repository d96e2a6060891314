package compliance

import (
	"fmt"

	"stockdesk/internal/types"

	"github.com/shopspring/decimal"
)

// Rule 1: the symbol must be an enabled stock/ETF of the tradable
// universe.
func (v *Validator) checkUniverse(in checkInput) *types.Rejection {
	inst, ok := v.universe.Lookup(in.dec.Symbol)
	if !ok {
		return &types.Rejection{
			Violation: types.ViolationUniverse,
			Reason:    fmt.Sprintf("%s is not in the tradable universe", in.dec.Symbol),
		}
	}
	if !inst.Enabled {
		return &types.Rejection{
			Violation: types.ViolationUniverse,
			Reason:    fmt.Sprintf("%s is currently disabled for trading", in.dec.Symbol),
		}
	}
	if inst.Type != "stock" && inst.Type != "etf" {
		return &types.Rejection{
			Violation: types.ViolationUniverse,
			Reason:    fmt.Sprintf("%s has type %s; only stocks and ETFs are tradable", in.dec.Symbol, inst.Type),
		}
	}
	return nil
}

// Rule 2: the rolling trade quota must have room in the current
// period. A stored period key behind the calendar means the counter is
// logically zero; the actual reset write happens at commit time.
func (v *Validator) checkQuota(in checkInput) *types.Rejection {
	quota := in.snap.State.TradeQuota
	if quota.Remaining(in.periodKey) > 0 {
		return nil
	}
	return &types.Rejection{
		Violation: types.ViolationQuotaExceeded,
		Reason:    fmt.Sprintf("trade quota reached (%d/%d) for period %s", quota.Used, quota.Limit, in.periodKey),
	}
}

// Rule 3: a BUY must be funded by the selected sub-account; a SELL
// needs an existing position with enough shares.
func (v *Validator) checkBalance(in checkInput) *types.Rejection {
	switch in.dec.Action {
	case types.ActionBuy:
		cost := in.price.Mul(decimal.NewFromInt(in.dec.Quantity))
		available := in.snap.Wallet.AccountCash(in.dec.PositionType)
		if cost.GreaterThan(available) {
			return &types.Rejection{
				Violation: types.ViolationInsufficientFunds,
				Reason: fmt.Sprintf("insufficient %s cash: need $%s, available $%s",
					in.dec.PositionType, cost.StringFixed(2), available.StringFixed(2)),
			}
		}
	case types.ActionSell:
		pos := in.snap.Position
		if pos == nil {
			return &types.Rejection{
				Violation: types.ViolationInsufficientPosition,
				Reason:    fmt.Sprintf("no open position in %s", in.dec.Symbol),
			}
		}
		if pos.Quantity < in.dec.Quantity {
			return &types.Rejection{
				Violation: types.ViolationInsufficientPosition,
				Reason: fmt.Sprintf("insufficient position in %s: want to sell %d, holding %d",
					in.dec.Symbol, in.dec.Quantity, pos.Quantity),
			}
		}
	}
	return nil
}

// Rule 4: no cross-account funding. A trade must settle against the
// account the position belongs to; the position's type is fixed at
// creation.
func (v *Validator) checkAllocation(in checkInput) *types.Rejection {
	pos := in.snap.Position
	if pos == nil {
		return nil // new position: the decision's account is authoritative
	}
	if pos.PositionType == in.dec.PositionType {
		return nil
	}
	return &types.Rejection{
		Violation: types.ViolationAllocation,
		Reason: fmt.Sprintf("%s is held in the %s account; a %s trade cannot settle against %s",
			in.dec.Symbol, pos.PositionType, in.dec.Action, in.dec.PositionType),
	}
}

// Rule 5: a LONG_TERM position may not be sold within the holding
// window of its first purchase. Later BUYs never reset the clock.
func (v *Validator) checkWashTrade(in checkInput) *types.Rejection {
	if in.dec.Action != types.ActionSell {
		return nil
	}
	pos := in.snap.Position
	if pos == nil || pos.PositionType != types.PositionLongTerm {
		return nil
	}
	held := pos.HoldingDays(in.today)
	if held >= v.params.WashTradeDays {
		return nil
	}
	return &types.Rejection{
		Violation: types.ViolationWashTrade,
		Reason: fmt.Sprintf("long-term holding %s sold after %d days; %d required",
			in.dec.Symbol, held, v.params.WashTradeDays),
	}
}
