package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/model"
)

type Messages struct {
	db *DB
}

func NewMessages(db *DB) *Messages {
	return &Messages{db: db}
}

func (r *Messages) Create(_ context.Context, matchID, senderID uuid.UUID, content string, now time.Time) (model.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	msg := model.Message{
		ID:        uuid.New(),
		MatchID:   matchID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now.UTC(),
	}
	if row, ok := r.db.users[senderID]; ok {
		msg.SenderName = row.user.Name
	}
	r.db.messages = append(r.db.messages, msg)
	return msg, nil
}

func (r *Messages) ListByMatch(_ context.Context, matchID uuid.UUID, limit int) ([]model.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	items := make([]model.Message, 0)
	for _, msg := range r.db.messages {
		if msg.MatchID == matchID {
			items = append(items, msg)
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *Messages) MarkViewed(_ context.Context, matchID, readerID uuid.UUID, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var marked int64
	at := now.UTC()
	for i, msg := range r.db.messages {
		if msg.MatchID == matchID && msg.SenderID != readerID && msg.ViewedAt == nil {
			r.db.messages[i].ViewedAt = &at
			marked++
		}
	}
	return marked, nil
}
