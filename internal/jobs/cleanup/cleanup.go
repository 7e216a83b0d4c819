package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRetention             = 30 * 24 * time.Hour
	defaultNotificationRetention = 90 * 24 * time.Hour
)

type RequestPruner interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job prunes chat request rows that stopped being actionable long ago and old
// notification rows. Expired requests are already ignored by every read path,
// so this only bounds table growth.
type Job struct {
	requests              RequestPruner
	notifications         NotificationPruner
	retention             time.Duration
	notificationRetention time.Duration
	now                   func() time.Time
	logger                *zap.Logger
}

func New(requests RequestPruner, notifications NotificationPruner, retention, notificationRetention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = defaultRetention
	}
	if notificationRetention <= 0 {
		notificationRetention = defaultNotificationRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		requests:              requests,
		notifications:         notifications,
		retention:             retention,
		notificationRetention: notificationRetention,
		now:                   time.Now,
		logger:                logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	now := j.now().UTC()

	if j.requests != nil {
		rows, err := j.requests.DeleteStale(ctx, now.Add(-j.retention))
		if err != nil {
			return fmt.Errorf("cleanup stale chat requests: %w", err)
		}
		if rows > 0 {
			j.logger.Info("cleanup stale chat requests completed", zap.Int64("deleted", rows))
		}
	}

	if j.notifications != nil {
		rows, err := j.notifications.DeleteOlderThan(ctx, now.Add(-j.notificationRetention))
		if err != nil {
			return fmt.Errorf("cleanup old notifications: %w", err)
		}
		if rows > 0 {
			j.logger.Info("cleanup old notifications completed", zap.Int64("deleted", rows))
		}
	}

	return nil
}
