package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/domain/rules"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepo struct {
	pool *pgxpool.Pool
}

type MatchListRecord struct {
	MatchID     uuid.UUID
	MatchedAt   time.Time
	Counterpart model.UserSummary
	Birthdate   *time.Time
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// Form inserts the canonical pair or returns the existing row's id.
// created reports whether this call inserted the row.
func (r *MatchRepo) Form(ctx context.Context, tx pgx.Tx, pair rules.Pair, now time.Time) (uuid.UUID, bool, error) {
	if pair.Lo == uuid.Nil || pair.Hi == uuid.Nil || pair.Lo == pair.Hi {
		return uuid.Nil, false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return uuid.Nil, false, fmt.Errorf("transaction is required")
	}

	var matchID uuid.UUID
	err := tx.QueryRow(ctx, `
INSERT INTO matches (
	user_lo_id,
	user_hi_id,
	created_at
) VALUES ($1, $2, $3)
ON CONFLICT (user_lo_id, user_hi_id) DO NOTHING
RETURNING id
`, pair.Lo, pair.Hi, now.UTC()).Scan(&matchID)
	if err == nil {
		return matchID, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isPgError(err, pgForeignKeyViolation) {
			return uuid.Nil, false, ErrUserNotFound
		}
		return uuid.Nil, false, fmt.Errorf("create match: %w", err)
	}

	err = tx.QueryRow(ctx, `
SELECT id
FROM matches
WHERE user_lo_id = $1 AND user_hi_id = $2
`, pair.Lo, pair.Hi).Scan(&matchID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("lookup existing match: %w", err)
	}

	return matchID, false, nil
}

func (r *MatchRepo) GetForMember(ctx context.Context, matchID, userID uuid.UUID) (model.Match, error) {
	if matchID == uuid.Nil || userID == uuid.Nil {
		return model.Match{}, fmt.Errorf("invalid match lookup payload")
	}
	if r.pool == nil {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	var m model.Match
	err := r.pool.QueryRow(ctx, `
SELECT id, user_lo_id, user_hi_id, created_at
FROM matches
WHERE id = $1 AND (user_lo_id = $2 OR user_hi_id = $2)
`, matchID, userID).Scan(&m.ID, &m.UserLoID, &m.UserHiID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}

	return m, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]MatchListRecord, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []MatchListRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	m.id,
	m.created_at,
	u.id,
	u.name,
	u.photos,
	u.bio,
	u.gender,
	u.birthdate
FROM matches m
JOIN users u ON u.id = CASE WHEN m.user_lo_id = $1 THEN m.user_hi_id ELSE m.user_lo_id END
WHERE m.user_lo_id = $1 OR m.user_hi_id = $1
ORDER BY m.created_at DESC, m.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]MatchListRecord, 0)
	for rows.Next() {
		var item MatchListRecord
		if err := rows.Scan(
			&item.MatchID,
			&item.MatchedAt,
			&item.Counterpart.ID,
			&item.Counterpart.Name,
			&item.Counterpart.Photos,
			&item.Counterpart.Bio,
			&item.Counterpart.Gender,
			&item.Birthdate,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate matches: %w", rows.Err())
	}

	return items, nil
}
