// Package gormstore persists the ledger in SQLite via gorm. All trade
// effects commit inside one transaction guarded by a compare-and-swap
// on agent_state.version.
package gormstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stockdesk/internal/store"
	"stockdesk/internal/store/model"
	"stockdesk/internal/types"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

var _ store.Ledger = (*Store)(nil)

// Open initializes the ledger database at path, creating parent
// directories and migrating the schema.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gormstore: ledger path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	return open(dsn, 2)
}

// OpenMemory backs the store with an in-memory database. Test use.
func OpenMemory() (*Store, error) {
	return open("file::memory:?cache=shared", 1)
}

func open(dsn string, conns int) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.WalletModel{},
		&model.PositionModel{},
		&model.TransactionModel{},
		&model.AgentStateModel{},
	); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little parallelism for concurrent HTTP reads while
	// keeping lock contention low.
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	return &Store{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --------------------------- model mapping ---------------------------

func walletFromModel(m model.WalletModel) types.Wallet {
	return types.Wallet{
		AgentID:        m.AgentID,
		CashBalance:    m.CashBalance,
		LongTermCash:   m.LongTermCash,
		ShortTermCash:  m.ShortTermCash,
		ReservedCash:   m.ReservedCash,
		TotalInvested:  m.TotalInvested,
		TotalWithdrawn: m.TotalWithdrawn,
		UpdatedAt:      m.UpdatedAt,
	}
}

func positionFromModel(m model.PositionModel) types.Position {
	return types.Position{
		AgentID:       m.AgentID,
		Symbol:        m.Symbol,
		Quantity:      m.Quantity,
		AverageCost:   m.AverageCost,
		PositionType:  types.PositionType(m.PositionType),
		FirstBuyDate:  m.FirstBuyDate,
		CurrentValue:  m.CurrentValue,
		UnrealizedPnL: m.UnrealizedPnL,
	}
}

func stateFromModel(m model.AgentStateModel) types.AgentState {
	state := types.AgentState{
		AgentID: m.AgentID,
		Version: m.Version,
		TradeQuota: types.TradeQuota{
			Used:      m.QuotaUsed,
			Limit:     m.QuotaLimit,
			PeriodKey: m.QuotaPeriodKey,
		},
		LongTermTarget: m.LongTermTarget,
		MarketView:     m.MarketView,
		UpdatedAt:      m.UpdatedAt,
	}
	if len(m.PortfolioSummary) > 0 {
		_ = json.Unmarshal(m.PortfolioSummary, &state.PortfolioSummary)
	}
	return state
}

func transactionFromModel(m model.TransactionModel) types.Transaction {
	tx := types.Transaction{
		ID:           m.ID,
		AgentID:      m.AgentID,
		Symbol:       m.Symbol,
		Action:       types.Action(m.Action),
		Quantity:     m.Quantity,
		Price:        m.Price,
		TotalAmount:  m.TotalAmount,
		PositionType: types.PositionType(m.PositionType),
		DecisionID:   m.DecisionID,
		Reason:       m.Reason,
		ExecutedAt:   m.ExecutedAt,
	}
	if len(m.MarketContext) > 0 {
		_ = json.Unmarshal(m.MarketContext, &tx.MarketContext)
	}
	return tx
}

func jsonColumn(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
