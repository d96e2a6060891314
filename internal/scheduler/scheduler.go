// Package scheduler runs the periodic maintenance jobs: rolling trade
// quotas into the new period and repricing open positions.
package scheduler

import (
	"context"
	"time"

	"stockdesk/internal/calendar"
	"stockdesk/internal/config"
	"stockdesk/internal/logger"
	"stockdesk/internal/service"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron  *cron.Cron
	desk  *service.Desk
	cfg   config.SchedulerConfig
	clock calendar.Clock
}

func New(desk *service.Desk, cfg config.SchedulerConfig, clock calendar.Clock) *Scheduler {
	if clock == nil {
		clock = calendar.SystemClock()
	}
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(calendar.Eastern())),
		desk:  desk,
		cfg:   cfg,
		clock: clock,
	}
}

// Start registers and launches the cron jobs. No-op when disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		logger.Infof("scheduler disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.QuotaResetCron, func() { s.runQuotaReset(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.ValuationCron, func() { s.runValuationRefresh(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	logger.Infof("scheduler started: quota_reset=%q valuation=%q", s.cfg.QuotaResetCron, s.cfg.ValuationCron)
	return nil
}

// Stop halts the cron runner and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		logger.Warnf("scheduler jobs still running after stop deadline")
	}
}

func (s *Scheduler) runQuotaReset(ctx context.Context) {
	started := s.clock.Now()
	if err := s.desk.ResetQuotas(ctx); err != nil {
		logger.Errorf("quota reset sweep: %v", err)
		return
	}
	logger.Infof("quota reset sweep done in %s", time.Since(started).Round(time.Millisecond))
}

func (s *Scheduler) runValuationRefresh(ctx context.Context) {
	// Prices only move on trading days, skip weekends and holidays.
	if !calendar.IsTradingDay(s.clock.Now()) {
		logger.Debugf("valuation refresh skipped, market closed")
		return
	}
	started := s.clock.Now()
	if err := s.desk.RefreshValuations(ctx); err != nil {
		logger.Errorf("valuation refresh: %v", err)
		return
	}
	logger.Infof("valuation refresh done in %s", time.Since(started).Round(time.Millisecond))
}
