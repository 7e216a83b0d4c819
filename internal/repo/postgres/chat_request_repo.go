package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
)

var ErrChatRequestNotFound = errors.New("chat request not found")

type ChatRequestRepo struct {
	pool *pgxpool.Pool
}

// ChatRequestListRecord pairs a request with the summary of the other side.
type ChatRequestListRecord struct {
	Request     model.ChatRequest
	Counterpart model.UserSummary
	Birthdate   *time.Time
}

func NewChatRequestRepo(pool *pgxpool.Pool) *ChatRequestRepo {
	return &ChatRequestRepo{pool: pool}
}

const chatRequestColumns = `
	id,
	from_user_id,
	to_user_id,
	message,
	status,
	created_at,
	expires_at,
	responded_at`

func scanChatRequest(row pgx.Row, extra ...any) (model.ChatRequest, error) {
	var item model.ChatRequest
	dest := []any{
		&item.ID,
		&item.FromUserID,
		&item.ToUserID,
		&item.Message,
		&item.Status,
		&item.CreatedAt,
		&item.ExpiresAt,
		&item.RespondedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.ChatRequest{}, err
	}
	return item, nil
}

// Upsert keeps one row per ordered pair. A resend resets it to pending with a fresh expiry.
func (r *ChatRequestRepo) Upsert(ctx context.Context, tx pgx.Tx, fromUserID, toUserID uuid.UUID, message *string, now, expiresAt time.Time) (model.ChatRequest, error) {
	if fromUserID == uuid.Nil || toUserID == uuid.Nil {
		return model.ChatRequest{}, fmt.Errorf("invalid chat request payload")
	}
	if tx == nil {
		return model.ChatRequest{}, fmt.Errorf("transaction is required")
	}

	item, err := scanChatRequest(tx.QueryRow(ctx, `
INSERT INTO chat_requests (
	from_user_id,
	to_user_id,
	message,
	status,
	created_at,
	expires_at,
	responded_at
) VALUES ($1, $2, $3, 'pending', $4, $5, NULL)
ON CONFLICT (from_user_id, to_user_id) DO UPDATE SET
	message = EXCLUDED.message,
	status = 'pending',
	created_at = EXCLUDED.created_at,
	expires_at = EXCLUDED.expires_at,
	responded_at = NULL
RETURNING`+chatRequestColumns,
		fromUserID, toUserID, message, now.UTC(), expiresAt.UTC()))
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return model.ChatRequest{}, ErrUserNotFound
		}
		return model.ChatRequest{}, fmt.Errorf("upsert chat request: %w", err)
	}

	return item, nil
}

// GetForUpdate row-locks the request until the transaction ends.
func (r *ChatRequestRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) (model.ChatRequest, error) {
	if requestID == uuid.Nil {
		return model.ChatRequest{}, fmt.Errorf("invalid chat request id")
	}
	if tx == nil {
		return model.ChatRequest{}, fmt.Errorf("transaction is required")
	}

	item, err := scanChatRequest(tx.QueryRow(ctx, `SELECT`+chatRequestColumns+`
FROM chat_requests
WHERE id = $1
FOR UPDATE
`, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ChatRequest{}, ErrChatRequestNotFound
		}
		return model.ChatRequest{}, fmt.Errorf("get chat request for update: %w", err)
	}

	return item, nil
}

// Respond moves a pending request addressed to responderID into a terminal status.
// It returns ErrChatRequestNotFound when no pending row matches.
func (r *ChatRequestRepo) Respond(ctx context.Context, tx pgx.Tx, requestID, responderID uuid.UUID, status enums.ChatRequestStatus, now time.Time) (model.ChatRequest, error) {
	if requestID == uuid.Nil || responderID == uuid.Nil {
		return model.ChatRequest{}, fmt.Errorf("invalid chat request response payload")
	}
	if status != enums.ChatRequestStatusAccepted && status != enums.ChatRequestStatusRejected {
		return model.ChatRequest{}, fmt.Errorf("invalid chat request status %q", status)
	}
	if tx == nil {
		return model.ChatRequest{}, fmt.Errorf("transaction is required")
	}

	item, err := scanChatRequest(tx.QueryRow(ctx, `
UPDATE chat_requests
SET status = $3, responded_at = $4
WHERE id = $1 AND to_user_id = $2 AND status = 'pending'
RETURNING`+chatRequestColumns, requestID, responderID, string(status), now.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ChatRequest{}, ErrChatRequestNotFound
		}
		return model.ChatRequest{}, fmt.Errorf("respond to chat request: %w", err)
	}

	return item, nil
}

func (r *ChatRequestRepo) ListInbound(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]ChatRequestListRecord, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []ChatRequestListRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	cr.id,
	cr.from_user_id,
	cr.to_user_id,
	cr.message,
	cr.status,
	cr.created_at,
	cr.expires_at,
	cr.responded_at,
	u.id,
	u.name,
	u.photos,
	u.bio,
	u.gender,
	u.birthdate
FROM chat_requests cr
JOIN users u ON u.id = cr.from_user_id
WHERE cr.to_user_id = $1
	AND cr.status = 'pending'
	AND cr.expires_at > $2
ORDER BY cr.created_at DESC, cr.id DESC
LIMIT $3
`, userID, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list inbound chat requests: %w", err)
	}
	return collectChatRequestRecords(rows)
}

func (r *ChatRequestRepo) ListOutbound(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]ChatRequestListRecord, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []ChatRequestListRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	cr.id,
	cr.from_user_id,
	cr.to_user_id,
	cr.message,
	cr.status,
	cr.created_at,
	cr.expires_at,
	cr.responded_at,
	u.id,
	u.name,
	u.photos,
	u.bio,
	u.gender,
	u.birthdate
FROM chat_requests cr
JOIN users u ON u.id = cr.to_user_id
WHERE cr.from_user_id = $1
	AND cr.created_at > $2
ORDER BY cr.created_at DESC, cr.id DESC
LIMIT $3
`, userID, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list outbound chat requests: %w", err)
	}
	return collectChatRequestRecords(rows)
}

func collectChatRequestRecords(rows pgx.Rows) ([]ChatRequestListRecord, error) {
	defer rows.Close()

	items := make([]ChatRequestListRecord, 0)
	for rows.Next() {
		var rec ChatRequestListRecord
		item, err := scanChatRequest(rows,
			&rec.Counterpart.ID,
			&rec.Counterpart.Name,
			&rec.Counterpart.Photos,
			&rec.Counterpart.Bio,
			&rec.Counterpart.Gender,
			&rec.Birthdate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat request: %w", err)
		}
		rec.Request = item
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate chat requests: %w", rows.Err())
	}

	return items, nil
}

// DeleteStale removes rows that stopped mattering before cutoff: pending rows that
// expired and responded rows answered before it.
func (r *ChatRequestRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM chat_requests
WHERE (status = 'pending' AND expires_at < $1)
	OR (status <> 'pending' AND responded_at < $1)
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete stale chat requests: %w", err)
	}

	return result.RowsAffected(), nil
}
