package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stockdesk/internal/store"
	"stockdesk/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAudit(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndListViolations(t *testing.T) {
	s := newAudit(t)
	ctx := context.Background()
	now := time.Now()

	v := store.Violation{
		AgentID:       "alpha",
		ViolationType: types.ViolationWashTrade,
		Rule:          types.RuleWashTrade,
		AttemptedAction: types.Decision{
			AgentID: "alpha", Symbol: "AAPL", Action: types.ActionSell,
			Quantity: 5, PositionType: types.PositionLongTerm,
		},
		Reason:     "held 12 days, 30 required",
		DetectedAt: now,
	}
	require.NoError(t, s.RecordViolation(ctx, v))

	t.Run("round trip", func(t *testing.T) {
		rows, err := s.RecentViolations(ctx, "alpha", now.Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		got := rows[0]
		assert.Equal(t, types.ViolationWashTrade, got.ViolationType)
		assert.Equal(t, types.RuleWashTrade, got.Rule)
		assert.Equal(t, "blocked", got.Severity, "severity defaults when empty")
		assert.Equal(t, "AAPL", got.AttemptedAction.Symbol)
		assert.Equal(t, int64(5), got.AttemptedAction.Quantity)
	})

	t.Run("since filter excludes old rows", func(t *testing.T) {
		rows, err := s.RecentViolations(ctx, "alpha", now.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("scoped per agent", func(t *testing.T) {
		rows, err := s.RecentViolations(ctx, "beta", now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestRecentViolationsOrder(t *testing.T) {
	s := newAudit(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	for i, reason := range []string{"first", "second", "third"} {
		require.NoError(t, s.RecordViolation(ctx, store.Violation{
			AgentID:       "alpha",
			ViolationType: types.ViolationQuotaExceeded,
			Rule:          types.RuleQuota,
			Reason:        reason,
			DetectedAt:    base.Add(time.Duration(i) * time.Second),
		}))
	}

	rows, err := s.RecentViolations(ctx, "alpha", base.Add(-time.Second))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "third", rows[0].Reason, "newest first")
	assert.Equal(t, "first", rows[2].Reason)
}

func TestClosedStore(t *testing.T) {
	s := newAudit(t)
	require.NoError(t, s.Close())
	assert.Error(t, s.RecordViolation(context.Background(), store.Violation{AgentID: "alpha"}))
}
