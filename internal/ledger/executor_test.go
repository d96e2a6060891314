package ledger

import (
	"context"
	"testing"
	"time"

	"stockdesk/internal/calendar"
	"stockdesk/internal/store"
	"stockdesk/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLedger struct {
	store.Ledger
	applied []store.TradeWrite
	applyFn func(store.TradeWrite) (int64, error)
}

func (c *captureLedger) ApplyTrade(_ context.Context, w store.TradeWrite) (int64, error) {
	c.applied = append(c.applied, w)
	if c.applyFn != nil {
		return c.applyFn(w)
	}
	return w.ExpectedVersion + 1, nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var testNow = time.Date(2026, 8, 14, 15, 0, 0, 0, time.UTC)

func newTestExecutor(l store.Ledger) *Executor {
	return NewExecutor(l, calendar.PeriodMonth, fixedClock{testNow})
}

func snapshotWith(pos *types.Position) *types.Snapshot {
	return &types.Snapshot{
		Wallet: types.Wallet{
			AgentID:       "alpha",
			CashBalance:   decimal.NewFromInt(100000),
			LongTermCash:  decimal.NewFromInt(50000),
			ShortTermCash: decimal.NewFromInt(50000),
		},
		Position: pos,
		State: types.AgentState{
			AgentID:    "alpha",
			Version:    7,
			TradeQuota: types.TradeQuota{Used: 2, Limit: 5, PeriodKey: "2026-08"},
		},
	}
}

func decisionOf(action types.Action, qty int64, pt types.PositionType) types.Decision {
	return types.Decision{
		AgentID:      "alpha",
		Symbol:       "AAPL",
		Action:       action,
		Quantity:     qty,
		PositionType: pt,
		DecisionID:   "dec-1",
	}
}

func TestExecuteBuyNewPosition(t *testing.T) {
	l := &captureLedger{}
	ex := newTestExecutor(l)

	receipt, err := ex.Execute(context.Background(), types.ExecContext{}, decisionOf(types.ActionBuy, 10, types.PositionShortTerm), decimal.NewFromInt(150), snapshotWith(nil))
	require.NoError(t, err)
	require.Len(t, l.applied, 1)
	w := l.applied[0]

	assert.Equal(t, int64(7), w.ExpectedVersion)
	assert.True(t, w.CashDelta.Equal(decimal.NewFromInt(-1500)), w.CashDelta.String())
	assert.True(t, w.ShortTermDelta.Equal(decimal.NewFromInt(-1500)))
	assert.True(t, w.LongTermDelta.IsZero())
	assert.True(t, w.InvestedDelta.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, store.PositionCreate, w.Position.Kind)
	assert.Equal(t, int64(10), w.Position.Quantity)
	assert.True(t, w.Position.AverageCost.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 3, w.Quota.Used)

	assert.True(t, receipt.Applied)
	assert.Equal(t, int64(8), receipt.StateVersion)
	assert.Equal(t, int64(10), receipt.PositionQty)
	assert.True(t, receipt.ResultingCash.Equal(decimal.NewFromInt(98500)))
}

func TestExecuteBuyAveragesCost(t *testing.T) {
	l := &captureLedger{}
	ex := newTestExecutor(l)
	snap := snapshotWith(&types.Position{
		AgentID: "alpha", Symbol: "AAPL", Quantity: 10,
		AverageCost:  decimal.NewFromInt(100),
		PositionType: types.PositionShortTerm,
		FirstBuyDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	_, err := ex.Execute(context.Background(), types.ExecContext{}, decisionOf(types.ActionBuy, 10, types.PositionShortTerm), decimal.NewFromInt(120), snap)
	require.NoError(t, err)
	w := l.applied[0]

	assert.Equal(t, store.PositionUpdate, w.Position.Kind)
	assert.Equal(t, int64(20), w.Position.Quantity)
	assert.True(t, w.Position.AverageCost.Equal(decimal.NewFromInt(110)), w.Position.AverageCost.String())
	// first buy date never moves on later buys
	assert.Equal(t, snap.Position.FirstBuyDate, w.Position.FirstBuyDate)
}

func TestExecuteSell(t *testing.T) {
	pos := &types.Position{
		AgentID: "alpha", Symbol: "AAPL", Quantity: 10,
		AverageCost:  decimal.NewFromInt(100),
		PositionType: types.PositionLongTerm,
		FirstBuyDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("partial sell keeps cost basis", func(t *testing.T) {
		l := &captureLedger{}
		ex := newTestExecutor(l)
		dec := decisionOf(types.ActionSell, 4, types.PositionLongTerm)

		receipt, err := ex.Execute(context.Background(), types.ExecContext{}, dec, decimal.NewFromInt(130), snapshotWith(pos))
		require.NoError(t, err)
		w := l.applied[0]

		assert.True(t, w.CashDelta.Equal(decimal.NewFromInt(520)))
		assert.True(t, w.LongTermDelta.Equal(decimal.NewFromInt(520)), "proceeds credit the position's own account")
		assert.True(t, w.WithdrawnDelta.Equal(decimal.NewFromInt(520)))
		assert.Equal(t, store.PositionUpdate, w.Position.Kind)
		assert.Equal(t, int64(6), w.Position.Quantity)
		assert.True(t, w.Position.AverageCost.Equal(decimal.NewFromInt(100)), "cost basis unchanged on partial sell")
		assert.Equal(t, int64(6), receipt.PositionQty)
	})

	t.Run("sell to zero deletes the position", func(t *testing.T) {
		l := &captureLedger{}
		ex := newTestExecutor(l)
		dec := decisionOf(types.ActionSell, 10, types.PositionLongTerm)

		receipt, err := ex.Execute(context.Background(), types.ExecContext{}, dec, decimal.NewFromInt(130), snapshotWith(pos))
		require.NoError(t, err)
		assert.Equal(t, store.PositionDelete, l.applied[0].Position.Kind)
		assert.Equal(t, int64(0), receipt.PositionQty)
	})

	t.Run("sell without position fails before any write", func(t *testing.T) {
		l := &captureLedger{}
		ex := newTestExecutor(l)
		dec := decisionOf(types.ActionSell, 1, types.PositionLongTerm)

		_, err := ex.Execute(context.Background(), types.ExecContext{}, dec, decimal.NewFromInt(130), snapshotWith(nil))
		assert.ErrorIs(t, err, types.ErrPositionNotFound)
		assert.Empty(t, l.applied)
	})
}

func TestExecuteQuotaRollover(t *testing.T) {
	l := &captureLedger{}
	ex := newTestExecutor(l)
	snap := snapshotWith(nil)
	snap.State.TradeQuota = types.TradeQuota{Used: 5, Limit: 5, PeriodKey: "2026-07"}

	_, err := ex.Execute(context.Background(), types.ExecContext{}, decisionOf(types.ActionBuy, 1, types.PositionShortTerm), decimal.NewFromInt(10), snap)
	require.NoError(t, err)
	q := l.applied[0].Quota
	assert.Equal(t, 1, q.Used, "stale period rolls over and counts this trade")
	assert.Equal(t, "2026-08", q.PeriodKey)
	assert.Equal(t, 5, q.Limit)
}

func TestExecuteDryRun(t *testing.T) {
	l := &captureLedger{}
	ex := newTestExecutor(l)

	receipt, err := ex.Execute(context.Background(), types.ExecContext{DryRun: true}, decisionOf(types.ActionBuy, 10, types.PositionShortTerm), decimal.NewFromInt(150), snapshotWith(nil))
	require.NoError(t, err)
	assert.Empty(t, l.applied, "dry run must not reach the store")
	assert.False(t, receipt.Applied)
	assert.Equal(t, int64(8), receipt.StateVersion)
	assert.True(t, receipt.ResultingCash.Equal(decimal.NewFromInt(98500)))
}

func TestExecutePropagatesVersionConflict(t *testing.T) {
	l := &captureLedger{applyFn: func(store.TradeWrite) (int64, error) {
		return 0, types.ErrVersionConflict
	}}
	ex := newTestExecutor(l)

	_, err := ex.Execute(context.Background(), types.ExecContext{}, decisionOf(types.ActionBuy, 1, types.PositionShortTerm), decimal.NewFromInt(10), snapshotWith(nil))
	assert.ErrorIs(t, err, types.ErrVersionConflict)
}

func TestExecuteRejectsBadPrice(t *testing.T) {
	ex := newTestExecutor(&captureLedger{})
	_, err := ex.Execute(context.Background(), types.ExecContext{}, decisionOf(types.ActionBuy, 1, types.PositionShortTerm), decimal.Zero, snapshotWith(nil))
	assert.Error(t, err)
}
