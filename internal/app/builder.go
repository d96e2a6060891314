package app

import (
	"context"
	"fmt"

	"stockdesk/internal/calendar"
	"stockdesk/internal/compliance"
	"stockdesk/internal/config"
	"stockdesk/internal/ledger"
	"stockdesk/internal/logger"
	"stockdesk/internal/oracle"
	"stockdesk/internal/pkg/money"
	"stockdesk/internal/scheduler"
	"stockdesk/internal/service"
	"stockdesk/internal/store"
	"stockdesk/internal/store/audit"
	"stockdesk/internal/store/gormstore"
	deskhttp "stockdesk/internal/transport/http"
	"stockdesk/internal/universe"
)

// AppBuilder assembles the desk from config. Overrides let tests swap
// the stores, oracle and clock without touching the wiring.
type AppBuilder struct {
	cfg *config.Config

	ledgerOverride store.Ledger
	auditOverride  store.AuditLog
	oracleOverride oracle.PriceOracle
	clockOverride  calendar.Clock
}

type AppBuilderOption func(*AppBuilder)

func WithLedger(l store.Ledger) AppBuilderOption {
	return func(b *AppBuilder) { b.ledgerOverride = l }
}

func WithAuditLog(a store.AuditLog) AppBuilderOption {
	return func(b *AppBuilder) { b.auditOverride = a }
}

func WithOracle(o oracle.PriceOracle) AppBuilderOption {
	return func(b *AppBuilder) { b.oracleOverride = o }
}

func WithClock(c calendar.Clock) AppBuilderOption {
	return func(b *AppBuilder) { b.clockOverride = c }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	clock := b.clockOverride
	if clock == nil {
		clock = calendar.SystemClock()
	}

	period, err := calendar.ParsePeriod(cfg.Trading.QuotaPeriod)
	if err != nil {
		return nil, err
	}

	ledgerStore := b.ledgerOverride
	if ledgerStore == nil {
		ledgerStore, err = gormstore.Open(cfg.Database.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("opening ledger store: %w", err)
		}
	}
	auditStore := b.auditOverride
	if auditStore == nil {
		auditStore, err = audit.Open(cfg.Database.AuditPath)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
	}

	uni, err := universe.Load(cfg.Universe.Path)
	if err != nil {
		return nil, fmt.Errorf("loading universe: %w", err)
	}
	logger.Infof("universe loaded: %d instruments (%d enabled)", uni.Len(), len(uni.EnabledSymbols()))

	prices := b.oracleOverride
	if prices == nil {
		prices, err = oracle.New(cfg.Oracle)
		if err != nil {
			return nil, fmt.Errorf("building price oracle: %w", err)
		}
	}

	validator := compliance.NewValidator(uni, auditStore, compliance.Params{
		WashTradeDays: cfg.Trading.WashTradeDays,
		QuotaPeriod:   period,
		Clock:         clock,
	})
	executor := ledger.NewExecutor(ledgerStore, period, clock)

	desk := service.NewDesk(ledgerStore, auditStore, validator, executor, prices, service.Params{
		QuotaLimit:         cfg.Trading.QuotaLimit,
		QuotaPeriod:        period,
		InitialCapital:     money.FromFloat(cfg.Trading.InitialCapital),
		ReservedCash:       money.FromFloat(cfg.Trading.ReservedCash),
		LongTermShare:      money.FromFloat(cfg.Trading.LongTermAllocation),
		EnforceTradingDay:  cfg.Trading.EnforceTradingDay,
		MaxConflictRetries: cfg.Trading.MaxConflictRetries,
		Clock:              clock,
	})

	httpServer, err := deskhttp.NewServer(deskhttp.ServerConfig{
		Addr: cfg.App.HTTPAddr,
		Desk: desk,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:        cfg,
		desk:       desk,
		ledger:     ledgerStore,
		audit:      auditStore,
		universe:   uni,
		httpServer: httpServer,
		scheduler:  scheduler.New(desk, cfg.Scheduler, clock),
	}, nil
}
