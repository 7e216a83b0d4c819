package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibecheck/backend/internal/domain/model"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, matchID, senderID uuid.UUID, content string, now time.Time) (model.Message, error) {
	if matchID == uuid.Nil || senderID == uuid.Nil || content == "" {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}
	if r.pool == nil {
		return model.Message{}, fmt.Errorf("postgres pool is nil")
	}

	var msg model.Message
	err := r.pool.QueryRow(ctx, `
WITH inserted AS (
	INSERT INTO messages (match_id, sender_id, content, created_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id, match_id, sender_id, content, created_at, viewed_at
)
SELECT i.id, i.match_id, i.sender_id, COALESCE(u.name, ''), i.content, i.created_at, i.viewed_at
FROM inserted i
LEFT JOIN users u ON u.id = i.sender_id
`, matchID, senderID, content, now.UTC()).Scan(
		&msg.ID,
		&msg.MatchID,
		&msg.SenderID,
		&msg.SenderName,
		&msg.Content,
		&msg.CreatedAt,
		&msg.ViewedAt,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}

	return msg, nil
}

func (r *MessageRepo) ListByMatch(ctx context.Context, matchID uuid.UUID, limit int) ([]model.Message, error) {
	if matchID == uuid.Nil {
		return nil, fmt.Errorf("invalid match id")
	}
	if limit <= 0 {
		limit = 500
	}
	if r.pool == nil {
		return []model.Message{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT m.id, m.match_id, m.sender_id, COALESCE(u.name, ''), m.content, m.created_at, m.viewed_at
FROM messages m
LEFT JOIN users u ON u.id = m.sender_id
WHERE m.match_id = $1
ORDER BY m.created_at ASC, m.id ASC
LIMIT $2
`, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0)
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.MatchID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.Content,
			&msg.CreatedAt,
			&msg.ViewedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	return items, nil
}

// MarkViewed stamps messages the reader has not sent and not yet seen.
func (r *MessageRepo) MarkViewed(ctx context.Context, matchID, readerID uuid.UUID, now time.Time) (int64, error) {
	if matchID == uuid.Nil || readerID == uuid.Nil {
		return 0, fmt.Errorf("invalid mark viewed payload")
	}
	if r.pool == nil {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx, `
UPDATE messages
SET viewed_at = $3
WHERE match_id = $1 AND sender_id <> $2 AND viewed_at IS NULL
`, matchID, readerID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("mark messages viewed: %w", err)
	}

	return result.RowsAffected(), nil
}
