package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
)

type Interactions struct {
	db *DB
}

func NewInteractions(db *DB) *Interactions {
	return &Interactions{db: db}
}

// LockPair is a no-op: memory transactions are already serialized.
func (r *Interactions) LockPair(context.Context, pgx.Tx, string) error {
	return nil
}

func (r *Interactions) Insert(_ context.Context, _ pgx.Tx, fromUserID, toUserID uuid.UUID, action enums.InteractionAction, now time.Time) (model.Interaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[fromUserID]; !ok {
		return model.Interaction{}, pgrepo.ErrUserNotFound
	}
	if _, ok := r.db.users[toUserID]; !ok {
		return model.Interaction{}, pgrepo.ErrUserNotFound
	}
	key := [2]uuid.UUID{fromUserID, toUserID}
	if _, exists := r.db.interactions[key]; exists {
		return model.Interaction{}, pgrepo.ErrDuplicateInteraction
	}

	item := model.Interaction{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Action:     action,
		CreatedAt:  now.UTC(),
	}
	r.db.interactions[key] = item
	return item, nil
}

func (r *Interactions) HasLike(_ context.Context, _ pgx.Tx, fromUserID, toUserID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.interactions[[2]uuid.UUID{fromUserID, toUserID}]
	return ok && item.Action == enums.InteractionActionLike, nil
}
