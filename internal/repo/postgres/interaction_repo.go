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

var ErrDuplicateInteraction = errors.New("interaction already recorded")

type InteractionRepo struct {
	pool *pgxpool.Pool
}

func NewInteractionRepo(pool *pgxpool.Pool) *InteractionRepo {
	return &InteractionRepo{pool: pool}
}

func (r *InteractionRepo) LockPair(ctx context.Context, tx pgx.Tx, key string) error {
	return LockPair(ctx, tx, key)
}

// Insert records a directional interaction. The first write for (from, to) wins.
func (r *InteractionRepo) Insert(ctx context.Context, tx pgx.Tx, fromUserID, toUserID uuid.UUID, action enums.InteractionAction, now time.Time) (model.Interaction, error) {
	if fromUserID == uuid.Nil || toUserID == uuid.Nil || !action.Valid() {
		return model.Interaction{}, fmt.Errorf("invalid interaction payload")
	}
	if tx == nil {
		return model.Interaction{}, fmt.Errorf("transaction is required")
	}

	var item model.Interaction
	err := tx.QueryRow(ctx, `
INSERT INTO interactions (
	from_user_id,
	to_user_id,
	action,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (from_user_id, to_user_id) DO NOTHING
RETURNING id, from_user_id, to_user_id, action, created_at
`, fromUserID, toUserID, string(action), now.UTC()).Scan(
		&item.ID,
		&item.FromUserID,
		&item.ToUserID,
		&item.Action,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Interaction{}, ErrDuplicateInteraction
		}
		if isPgError(err, pgForeignKeyViolation) {
			return model.Interaction{}, ErrUserNotFound
		}
		return model.Interaction{}, fmt.Errorf("insert interaction: %w", err)
	}

	return item, nil
}

func (r *InteractionRepo) HasLike(ctx context.Context, tx pgx.Tx, fromUserID, toUserID uuid.UUID) (bool, error) {
	if fromUserID == uuid.Nil || toUserID == uuid.Nil {
		return false, fmt.Errorf("invalid like lookup payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM interactions
WHERE from_user_id = $1 AND to_user_id = $2 AND action = 'like'
LIMIT 1
`, fromUserID, toUserID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reciprocal like: %w", err)
	}

	return true, nil
}
