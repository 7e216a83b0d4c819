package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/model"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 200
)

var (
	ErrValidation           = errors.New("validation error")
	ErrNotificationNotFound = errors.New("notification not found")
)

type InboxStore interface {
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

// Inbox is the read side of emitted notifications.
type Inbox struct {
	store InboxStore
	now   func() time.Time
}

func NewInbox(store InboxStore) *Inbox {
	return &Inbox{store: store, now: time.Now}
}

func (i *Inbox) List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if userID == uuid.Nil {
		return nil, ErrValidation
	}
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	if limit > maxInboxLimit {
		limit = maxInboxLimit
	}

	items, err := i.store.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (i *Inbox) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return ErrValidation
	}

	found, err := i.store.MarkRead(ctx, userID, notificationID, i.now().UTC())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, ErrValidation
	}

	updated, err := i.store.MarkAllRead(ctx, userID, i.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return updated, nil
}
