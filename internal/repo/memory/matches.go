package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/domain/rules"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
)

type Matches struct {
	db *DB
}

func NewMatches(db *DB) *Matches {
	return &Matches{db: db}
}

func (r *Matches) Form(_ context.Context, _ pgx.Tx, pair rules.Pair, now time.Time) (uuid.UUID, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := [2]uuid.UUID{pair.Lo, pair.Hi}
	if existing, ok := r.db.matches[key]; ok {
		return existing.ID, false, nil
	}
	if _, ok := r.db.users[pair.Lo]; !ok {
		return uuid.Nil, false, pgrepo.ErrUserNotFound
	}
	if _, ok := r.db.users[pair.Hi]; !ok {
		return uuid.Nil, false, pgrepo.ErrUserNotFound
	}

	m := model.Match{ID: uuid.New(), UserLoID: pair.Lo, UserHiID: pair.Hi, CreatedAt: now.UTC()}
	r.db.matches[key] = m
	return m.ID, true, nil
}

func (r *Matches) GetForMember(_ context.Context, matchID, userID uuid.UUID) (model.Match, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, m := range r.db.matches {
		if m.ID == matchID && m.HasUser(userID) {
			return m, nil
		}
	}
	return model.Match{}, pgrepo.ErrMatchNotFound
}

func (r *Matches) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]pgrepo.MatchListRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	items := make([]pgrepo.MatchListRecord, 0)
	for _, m := range r.db.matches {
		other, ok := m.Counterpart(userID)
		if !ok {
			continue
		}
		summary, birthdate, ok := r.db.summary(other)
		if !ok {
			continue
		}
		items = append(items, pgrepo.MatchListRecord{
			MatchID:     m.ID,
			MatchedAt:   m.CreatedAt,
			Counterpart: summary,
			Birthdate:   birthdate,
		})
	}
	newestFirst(items, func(r pgrepo.MatchListRecord) time.Time { return r.MatchedAt })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
