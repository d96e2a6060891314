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
	"gorm.io/gorm/clause"
)

// EnsureAgent seeds wallet and agent state for a new agent. Existing
// rows are left untouched, so repeated calls are safe.
func (s *Store) EnsureAgent(ctx context.Context, agentID string, seed store.AgentSeed) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gormstore: not initialized")
	}
	if agentID == "" {
		return fmt.Errorf("gormstore: agent id cannot be empty")
	}
	investable := seed.InitialCapital.Sub(seed.ReservedCash)
	if investable.IsNegative() {
		return fmt.Errorf("gormstore: reserved cash exceeds initial capital")
	}
	longTerm := investable.Mul(seed.LongTermShare).Round(2)
	shortTerm := investable.Sub(longTerm)
	quotaLimit := seed.QuotaLimit
	if quotaLimit <= 0 {
		quotaLimit = 5
	}
	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet := model.WalletModel{
			AgentID:        agentID,
			CashBalance:    seed.InitialCapital,
			LongTermCash:   longTerm,
			ShortTermCash:  shortTerm,
			ReservedCash:   seed.ReservedCash,
			TotalInvested:  decimal.Zero,
			TotalWithdrawn: decimal.Zero,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&wallet).Error; err != nil {
			return err
		}
		state := model.AgentStateModel{
			AgentID:        agentID,
			Version:        1,
			QuotaUsed:      0,
			QuotaLimit:     quotaLimit,
			QuotaPeriodKey: "",
			LongTermTarget: seed.LongTermShare,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&state).Error
	})
}

// LoadSnapshot reads wallet, the symbol's position and the versioned
// agent state inside one transaction so the view is point-in-time
// consistent.
func (s *Store) LoadSnapshot(ctx context.Context, agentID, symbol string) (*types.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gormstore: not initialized")
	}
	var snap types.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stateM model.AgentStateModel
		if err := tx.Where("agent_id = ?", agentID).First(&stateM).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", types.ErrAgentNotFound, agentID)
			}
			return err
		}
		var walletM model.WalletModel
		if err := tx.Where("agent_id = ?", agentID).First(&walletM).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: wallet missing for %s", types.ErrAgentNotFound, agentID)
			}
			return err
		}
		var posM model.PositionModel
		err := tx.Where("agent_id = ? AND symbol = ?", agentID, symbol).First(&posM).Error
		switch {
		case err == nil:
			pos := positionFromModel(posM)
			snap.Position = &pos
		case errors.Is(err, gorm.ErrRecordNotFound):
			snap.Position = nil
		default:
			return err
		}
		snap.State = stateFromModel(stateM)
		snap.Wallet = walletFromModel(walletM)
		return nil
	})
	if err != nil {
		return nil, err
	}
	snap.TakenAt = time.Now()
	return &snap, nil
}

func (s *Store) Wallet(ctx context.Context, agentID string) (*types.Wallet, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gormstore: not initialized")
	}
	var m model.WalletModel
	if err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", types.ErrAgentNotFound, agentID)
		}
		return nil, err
	}
	w := walletFromModel(m)
	return &w, nil
}

func (s *Store) Positions(ctx context.Context, agentID string) ([]types.Position, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gormstore: not initialized")
	}
	var models []model.PositionModel
	if err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("symbol").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.Position, 0, len(models))
	for _, m := range models {
		out = append(out, positionFromModel(m))
	}
	return out, nil
}

func (s *Store) Transactions(ctx context.Context, agentID string, limit int) ([]types.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gormstore: not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []model.TransactionModel
	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("executed_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]types.Transaction, 0, len(models))
	for _, m := range models {
		out = append(out, transactionFromModel(m))
	}
	return out, nil
}

func (s *Store) AgentIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gormstore: not initialized")
	}
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&model.AgentStateModel{}).
		Order("agent_id").
		Pluck("agent_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
