package workerapp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vibecheck/backend/internal/config"
	"github.com/vibecheck/backend/internal/jobs/cleanup"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
)

type Runner interface {
	Run(ctx context.Context) error
}

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	job      Runner
	interval time.Duration
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("init postgres for worker app: %w", err)
	}

	job := cleanup.New(
		pgrepo.NewChatRequestRepo(pool),
		pgrepo.NewNotificationRepo(pool),
		cfg.Cleanup.Retention,
		cfg.Cleanup.NotificationRetention,
		logger,
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		postgres: pool,
		job:      job,
		interval: cfg.Cleanup.Interval,
	}, nil
}

// NewWithRunner builds an app around an arbitrary job, without a database.
func NewWithRunner(job Runner, interval time.Duration, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger, job: job, interval: interval}
}

// Run executes the job once immediately and then on every tick until ctx is done.
// A failed run is logged and retried on the next tick.
func (a *App) Run(ctx context.Context) error {
	if a.job == nil {
		return nil
	}

	interval := a.interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	a.logger.Info("worker app started", zap.Duration("interval", interval))

	a.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("worker app stopped")
			return nil
		case <-ticker.C:
			a.runOnce(ctx)
		}
	}
}

func (a *App) runOnce(ctx context.Context) {
	start := time.Now()
	if err := a.job.Run(ctx); err != nil {
		a.logger.Error("cleanup run failed", zap.Error(err))
		return
	}
	a.logger.Debug("cleanup run completed", zap.Duration("duration", time.Since(start)))
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
