package service

import (
	"context"
	"errors"
	"fmt"

	"stockdesk/internal/calendar"
	"stockdesk/internal/logger"
	"stockdesk/internal/oracle"

	"github.com/shopspring/decimal"
)

// ResetQuotas sweeps every agent and rolls its quota forward when the
// stored period key is behind the current one. Agents already on the
// current period are untouched.
func (d *Desk) ResetQuotas(ctx context.Context) error {
	ids, err := d.ledgerStore.AgentIDs(ctx)
	if err != nil {
		return err
	}
	periodKey := calendar.PeriodKey(d.params.QuotaPeriod, d.params.Clock.Now())
	var firstErr error
	for _, id := range ids {
		if err := d.ledgerStore.ResetQuota(ctx, id, periodKey); err != nil {
			logger.Errorf("quota reset failed for %s: %v", id, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("quota reset for %s: %w", id, err)
			}
		}
	}
	return firstErr
}

// RefreshValuations reprices every held position from the oracle.
// Unpriceable symbols keep their last valuation.
func (d *Desk) RefreshValuations(ctx context.Context) error {
	ids, err := d.ledgerStore.AgentIDs(ctx)
	if err != nil {
		return err
	}
	cache := map[string]decimal.Decimal{}
	var firstErr error
	for _, id := range ids {
		positions, err := d.ledgerStore.Positions(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		prices := map[string]decimal.Decimal{}
		for _, pos := range positions {
			price, ok := cache[pos.Symbol]
			if !ok {
				price, err = d.prices.GetPrice(ctx, pos.Symbol)
				if err != nil {
					if errors.Is(err, oracle.ErrPriceUnavailable) {
						logger.Warnf("no price for %s, keeping last valuation", pos.Symbol)
						continue
					}
					if firstErr == nil {
						firstErr = fmt.Errorf("pricing %s: %w", pos.Symbol, err)
					}
					continue
				}
				cache[pos.Symbol] = price
			}
			prices[pos.Symbol] = price
		}
		if len(prices) == 0 {
			continue
		}
		if err := d.ledgerStore.UpdateValuations(ctx, id, prices); err != nil {
			logger.Errorf("valuation update failed for %s: %v", id, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("valuations for %s: %w", id, err)
			}
		}
	}
	return firstErr
}
