package scheduler

import (
	"context"
	"testing"

	"stockdesk/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestStartDisabled(t *testing.T) {
	s := New(nil, config.SchedulerConfig{Enabled: false}, nil)
	assert.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestStartRejectsBadCron(t *testing.T) {
	s := New(nil, config.SchedulerConfig{
		Enabled:        true,
		QuotaResetCron: "not a cron spec",
		ValuationCron:  "30 16 * * 1-5",
	}, nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestStopNil(t *testing.T) {
	var s *Scheduler
	s.Stop() // must not panic
}
