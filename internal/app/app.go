// Package app wires config, stores, compliance and transport into one
// runnable desk process.
package app

import (
	"context"
	"fmt"

	"stockdesk/internal/config"
	"stockdesk/internal/logger"
	"stockdesk/internal/scheduler"
	"stockdesk/internal/service"
	"stockdesk/internal/store"
	deskhttp "stockdesk/internal/transport/http"
	"stockdesk/internal/universe"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	desk       *service.Desk
	ledger     store.Ledger
	audit      store.AuditLog
	universe   *universe.Universe
	httpServer *deskhttp.Server
	scheduler  *scheduler.Scheduler
}

// NewApp builds the application from config without starting anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return NewAppBuilder(cfg).Build(context.Background())
}

// Desk exposes the service layer for harnesses and tests.
func (a *App) Desk() *service.Desk {
	if a == nil {
		return nil
	}
	return a.desk
}

// Run serves HTTP, watches the universe file and drives the scheduler
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("http server listening on %s", a.httpServer.Addr())
		if err := a.httpServer.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if a.cfg.Universe.Watch {
		group.Go(func() error {
			return a.universe.Watch(ctx)
		})
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer a.scheduler.Stop()

	return group.Wait()
}

func (a *App) close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			logger.Errorf("closing ledger store: %v", err)
		}
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			logger.Errorf("closing audit store: %v", err)
		}
	}
}
