package service

import (
	"context"
	"time"

	"stockdesk/internal/store"
	"stockdesk/internal/types"
)

// PortfolioView is the read-side projection served over HTTP.
type PortfolioView struct {
	Wallet    types.Wallet     `json:"wallet"`
	Positions []types.Position `json:"positions"`
}

func (d *Desk) Portfolio(ctx context.Context, agentID string) (*PortfolioView, error) {
	wallet, err := d.ledgerStore.Wallet(ctx, agentID)
	if err != nil {
		return nil, err
	}
	positions, err := d.ledgerStore.Positions(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return &PortfolioView{Wallet: *wallet, Positions: positions}, nil
}

func (d *Desk) Transactions(ctx context.Context, agentID string, limit int) ([]types.Transaction, error) {
	return d.ledgerStore.Transactions(ctx, agentID, limit)
}

func (d *Desk) Violations(ctx context.Context, agentID string, days int) ([]store.Violation, error) {
	if days <= 0 {
		days = 7
	}
	since := d.params.Clock.Now().AddDate(0, 0, -days)
	return d.audit.RecentViolations(ctx, agentID, since)
}

func (d *Desk) AgentIDs(ctx context.Context) ([]string, error) {
	return d.ledgerStore.AgentIDs(ctx)
}

// Now exposes the service clock so transports report consistent time.
func (d *Desk) Now() time.Time {
	return d.params.Clock.Now()
}
