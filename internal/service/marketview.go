package service

import (
	"context"
	"errors"

	"stockdesk/internal/types"
)

// SetMarketView replaces the agent's free-form market notes. It rides
// the same versioned write path as trades, so a concurrent trade forces
// a re-read rather than a lost update.
func (d *Desk) SetMarketView(ctx context.Context, agentID, view string, summary map[string]any) error {
	var lastErr error
	for attempt := 0; attempt < d.params.MaxConflictRetries; attempt++ {
		snap, err := d.ledgerStore.LoadSnapshot(ctx, agentID, "")
		if err != nil {
			return err
		}
		err = d.ledgerStore.UpdateMarketView(ctx, agentID, snap.State.Version, view, summary)
		if err == nil {
			return nil
		}
		if !errors.Is(err, types.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
