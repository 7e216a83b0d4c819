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

type ChatRequests struct {
	db *DB
}

func NewChatRequests(db *DB) *ChatRequests {
	return &ChatRequests{db: db}
}

func (r *ChatRequests) Upsert(_ context.Context, _ pgx.Tx, fromUserID, toUserID uuid.UUID, message *string, now, expiresAt time.Time) (model.ChatRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[fromUserID]; !ok {
		return model.ChatRequest{}, pgrepo.ErrUserNotFound
	}
	if _, ok := r.db.users[toUserID]; !ok {
		return model.ChatRequest{}, pgrepo.ErrUserNotFound
	}

	item := model.ChatRequest{ID: uuid.New()}
	for id, existing := range r.db.chatRequests {
		if existing.FromUserID == fromUserID && existing.ToUserID == toUserID {
			item.ID = id
			break
		}
	}
	item.FromUserID = fromUserID
	item.ToUserID = toUserID
	item.Message = message
	item.Status = enums.ChatRequestStatusPending
	item.CreatedAt = now.UTC()
	item.ExpiresAt = expiresAt.UTC()
	item.RespondedAt = nil

	r.db.chatRequests[item.ID] = item
	return item, nil
}

func (r *ChatRequests) GetForUpdate(_ context.Context, _ pgx.Tx, requestID uuid.UUID) (model.ChatRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.chatRequests[requestID]
	if !ok {
		return model.ChatRequest{}, pgrepo.ErrChatRequestNotFound
	}
	return item, nil
}

func (r *ChatRequests) Respond(_ context.Context, _ pgx.Tx, requestID, responderID uuid.UUID, status enums.ChatRequestStatus, now time.Time) (model.ChatRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item, ok := r.db.chatRequests[requestID]
	if !ok || item.ToUserID != responderID || item.Status != enums.ChatRequestStatusPending {
		return model.ChatRequest{}, pgrepo.ErrChatRequestNotFound
	}
	at := now.UTC()
	item.Status = status
	item.RespondedAt = &at
	r.db.chatRequests[requestID] = item
	return item, nil
}

func (r *ChatRequests) ListInbound(_ context.Context, userID uuid.UUID, now time.Time, limit int) ([]pgrepo.ChatRequestListRecord, error) {
	return r.list(limit, func(item model.ChatRequest) (uuid.UUID, bool) {
		ok := item.ToUserID == userID &&
			item.Status == enums.ChatRequestStatusPending &&
			item.ExpiresAt.After(now)
		return item.FromUserID, ok
	})
}

func (r *ChatRequests) ListOutbound(_ context.Context, userID uuid.UUID, since time.Time, limit int) ([]pgrepo.ChatRequestListRecord, error) {
	return r.list(limit, func(item model.ChatRequest) (uuid.UUID, bool) {
		return item.ToUserID, item.FromUserID == userID && item.CreatedAt.After(since)
	})
}

func (r *ChatRequests) list(limit int, keep func(model.ChatRequest) (uuid.UUID, bool)) ([]pgrepo.ChatRequestListRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	items := make([]pgrepo.ChatRequestListRecord, 0)
	for _, item := range r.db.chatRequests {
		other, ok := keep(item)
		if !ok {
			continue
		}
		summary, birthdate, ok := r.db.summary(other)
		if !ok {
			continue
		}
		items = append(items, pgrepo.ChatRequestListRecord{Request: item, Counterpart: summary, Birthdate: birthdate})
	}
	newestFirst(items, func(r pgrepo.ChatRequestListRecord) time.Time { return r.Request.CreatedAt })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *ChatRequests) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var deleted int64
	for id, item := range r.db.chatRequests {
		stale := false
		if item.Status == enums.ChatRequestStatusPending {
			stale = item.ExpiresAt.Before(cutoff)
		} else if item.RespondedAt != nil {
			stale = item.RespondedAt.Before(cutoff)
		}
		if stale {
			delete(r.db.chatRequests, id)
			deleted++
		}
	}
	return deleted, nil
}
