package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockdesk/internal/store"
	"stockdesk/internal/store/model"
	"stockdesk/internal/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplyTrade commits wallet deltas, the position change, the quota
// bookkeeping, the transaction row and the version bump as one unit.
// The version precondition failing aborts the whole write with
// types.ErrVersionConflict.
func (s *Store) ApplyTrade(ctx context.Context, w store.TradeWrite) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("gormstore: not initialized")
	}
	newVersion := w.ExpectedVersion + 1
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Version CAS first: it serializes everything below.
		res := tx.Model(&model.AgentStateModel{}).
			Where("agent_id = ? AND version = ?", w.AgentID, w.ExpectedVersion).
			Updates(map[string]any{
				"version":          newVersion,
				"quota_used":       w.Quota.Used,
				"quota_limit":      w.Quota.Limit,
				"quota_period_key": w.Quota.PeriodKey,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.AgentStateModel{}).Where("agent_id = ?", w.AgentID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: %s", types.ErrAgentNotFound, w.AgentID)
			}
			return types.ErrVersionConflict
		}

		res = tx.Model(&model.WalletModel{}).
			Where("agent_id = ?", w.AgentID).
			Updates(map[string]any{
				"cash_balance":        gorm.Expr("cash_balance + ?", w.CashDelta),
				"long_term_cash":      gorm.Expr("long_term_cash + ?", w.LongTermDelta),
				"short_term_cash":     gorm.Expr("short_term_cash + ?", w.ShortTermDelta),
				"total_invested":      gorm.Expr("total_invested + ?", w.InvestedDelta),
				"total_withdrawn":     gorm.Expr("total_withdrawn + ?", w.WithdrawnDelta),
				"last_transaction_at": now,
				"updated_at":          now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: wallet missing for %s", types.ErrAgentNotFound, w.AgentID)
		}

		if err := applyPositionWrite(tx, w.AgentID, w.Position, now); err != nil {
			return err
		}

		txRow := model.TransactionModel{
			AgentID:       w.AgentID,
			Symbol:        w.Tx.Symbol,
			Action:        string(w.Tx.Action),
			Quantity:      w.Tx.Quantity,
			Price:         w.Tx.Price,
			TotalAmount:   w.Tx.TotalAmount,
			PositionType:  string(w.Tx.PositionType),
			DecisionID:    w.Tx.DecisionID,
			Reason:        w.Tx.Reason,
			MarketContext: jsonColumn(w.Tx.MarketContext),
			ExecutedAt:    now,
		}
		return tx.Create(&txRow).Error
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

func applyPositionWrite(tx *gorm.DB, agentID string, pw store.PositionWrite, now time.Time) error {
	switch pw.Kind {
	case store.PositionCreate:
		row := model.PositionModel{
			AgentID:      agentID,
			Symbol:       pw.Symbol,
			Quantity:     pw.Quantity,
			AverageCost:  pw.AverageCost,
			PositionType: string(pw.PositionType),
			FirstBuyDate: pw.FirstBuyDate,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(&row).Error
	case store.PositionUpdate:
		res := tx.Model(&model.PositionModel{}).
			Where("agent_id = ? AND symbol = ?", agentID, pw.Symbol).
			Updates(map[string]any{
				"quantity":     pw.Quantity,
				"average_cost": pw.AverageCost,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", types.ErrPositionNotFound, pw.Symbol)
		}
		return nil
	case store.PositionDelete:
		res := tx.Where("agent_id = ? AND symbol = ?", agentID, pw.Symbol).Delete(&model.PositionModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", types.ErrPositionNotFound, pw.Symbol)
		}
		return nil
	default:
		return fmt.Errorf("gormstore: unknown position write kind %d", pw.Kind)
	}
}

// ResetQuota rolls the quota window forward for one agent. It follows
// the same CAS discipline as trades; a handful of internal retries
// absorbs a concurrently committing trade.
func (s *Store) ResetQuota(ctx context.Context, agentID, periodKey string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gormstore: not initialized")
	}
	const attempts = 3
	for i := 0; i < attempts; i++ {
		var stateM model.AgentStateModel
		if err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&stateM).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", types.ErrAgentNotFound, agentID)
			}
			return err
		}
		if stateM.QuotaPeriodKey == periodKey {
			return nil // already rolled over
		}
		res := s.db.WithContext(ctx).Model(&model.AgentStateModel{}).
			Where("agent_id = ? AND version = ?", agentID, stateM.Version).
			Updates(map[string]any{
				"version":          stateM.Version + 1,
				"quota_used":       0,
				"quota_period_key": periodKey,
				"updated_at":       time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
	}
	return types.ErrVersionConflict
}

// UpdateValuations refreshes market value and unrealized PnL on open
// positions. Quantity, cost basis and the agent-state version are not
// touched: valuation is bookkeeping, not a trade.
func (s *Store) UpdateValuations(ctx context.Context, agentID string, prices map[string]decimal.Decimal) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gormstore: not initialized")
	}
	if len(prices) == 0 {
		return nil
	}
	var positions []model.PositionModel
	if err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&positions).Error; err != nil {
		return err
	}
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pos := range positions {
			price, ok := prices[pos.Symbol]
			if !ok || !price.IsPositive() {
				continue
			}
			qty := decimal.NewFromInt(pos.Quantity)
			value := qty.Mul(price).Round(2)
			pnl := value.Sub(qty.Mul(pos.AverageCost)).Round(2)
			if err := tx.Model(&model.PositionModel{}).
				Where("agent_id = ? AND symbol = ?", agentID, pos.Symbol).
				Updates(map[string]any{
					"current_value":  value,
					"unrealized_pnl": pnl,
					"updated_at":     now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateMarketView writes the opaque narrative fields through the
// versioned path so reporting readers see a coherent state+version.
func (s *Store) UpdateMarketView(ctx context.Context, agentID string, version int64, view string, summary map[string]any) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gormstore: not initialized")
	}
	updates := map[string]any{
		"version":     version + 1,
		"market_view": view,
		"updated_at":  time.Now(),
	}
	if summary != nil {
		updates["portfolio_summary"] = jsonColumn(summary)
	}
	res := s.db.WithContext(ctx).Model(&model.AgentStateModel{}).
		Where("agent_id = ? AND version = ?", agentID, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.AgentStateModel{}).Where("agent_id = ?", agentID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", types.ErrAgentNotFound, agentID)
		}
		return types.ErrVersionConflict
	}
	return nil
}
