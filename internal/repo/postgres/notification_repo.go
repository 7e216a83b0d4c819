package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Insert(ctx context.Context, n model.Notification) (uuid.UUID, error) {
	if n.UserID == uuid.Nil || n.Type == "" {
		return uuid.Nil, fmt.Errorf("invalid notification payload")
	}
	if r.pool == nil {
		return uuid.Nil, fmt.Errorf("postgres pool is nil")
	}

	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal notification data: %w", err)
	}

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, `
INSERT INTO notifications (
	user_id,
	type,
	title,
	body,
	data,
	created_at
) VALUES ($1, $2, $3, $4, $5::jsonb, $6)
RETURNING id
`, n.UserID, string(n.Type), n.Title, n.Body, raw, n.CreatedAt.UTC()).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("insert notification: %w", err)
	}

	return id, nil
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, type, title, body, data, created_at, read_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]model.Notification, 0, limit)
	for rows.Next() {
		var (
			n       model.Notification
			typ     string
			rawData []byte
			readAt  *time.Time
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &rawData, &n.CreatedAt, &readAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = enums.NotificationType(typ)
		if len(rawData) > 0 {
			if err := json.Unmarshal(rawData, &n.Data); err != nil {
				return nil, fmt.Errorf("decode notification data: %w", err)
			}
		}
		n.CreatedAt = n.CreatedAt.UTC()
		if readAt != nil {
			at := readAt.UTC()
			n.ReadAt = &at
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return items, nil
}

// MarkRead reports whether the notification exists for userID. Re-marking keeps the first read_at.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE notifications
SET read_at = COALESCE(read_at, $3)
WHERE id = $1
  AND user_id = $2
`, notificationID, userID, now.UTC())
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE notifications
SET read_at = $2
WHERE user_id = $1
  AND read_at IS NULL
`, userID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *NotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM notifications
WHERE created_at < $1
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}

	return result.RowsAffected(), nil
}
