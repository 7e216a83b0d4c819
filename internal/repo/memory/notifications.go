package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/model"
)

// Notifications is written outside business transactions, so it keeps its own lock.
type Notifications struct {
	mu   sync.Mutex
	rows []model.Notification
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (r *Notifications) Insert(_ context.Context, n model.Notification) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = uuid.New()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.rows = append(r.rows, n)
	return n.ID, nil
}

func (r *Notifications) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]model.Notification, 0)
	for _, n := range r.rows {
		if n.UserID == userID {
			items = append(items, n)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *Notifications) MarkRead(_ context.Context, userID, notificationID uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.rows {
		if r.rows[i].ID != notificationID || r.rows[i].UserID != userID {
			continue
		}
		if r.rows[i].ReadAt == nil {
			at := now.UTC()
			r.rows[i].ReadAt = &at
		}
		return true, nil
	}
	return false, nil
}

func (r *Notifications) MarkAllRead(_ context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for i := range r.rows {
		if r.rows[i].UserID == userID && r.rows[i].ReadAt == nil {
			at := now.UTC()
			r.rows[i].ReadAt = &at
			updated++
		}
	}
	return updated, nil
}

func (r *Notifications) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.rows[:0]
	var deleted int64
	for _, n := range r.rows {
		if n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.rows = kept
	return deleted, nil
}
