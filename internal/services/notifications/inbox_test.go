package notifications_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/repo/memory"
	notificationsvc "github.com/vibecheck/backend/internal/services/notifications"
)

func TestInboxListsNewestFirstAndMarksRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNotifications()
	inbox := notificationsvc.NewInbox(store)
	userID := uuid.New()
	other := uuid.New()
	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	firstID, _ := store.Insert(ctx, model.Notification{UserID: userID, Type: enums.NotificationTypeMatch, Title: "match", CreatedAt: base})
	_, _ = store.Insert(ctx, model.Notification{UserID: userID, Type: enums.NotificationTypeMessage, Title: "message", CreatedAt: base.Add(time.Minute)})
	otherID, _ := store.Insert(ctx, model.Notification{UserID: other, Type: enums.NotificationTypeMatch, Title: "match", CreatedAt: base})

	items, err := inbox.List(ctx, userID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Title != "message" {
		t.Fatalf("unexpected inbox order: %+v", items)
	}

	if err := inbox.MarkRead(ctx, userID, firstID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := inbox.MarkRead(ctx, userID, otherID); !errors.Is(err, notificationsvc.ErrNotificationNotFound) {
		t.Fatalf("unexpected foreign mark error: got %v want %v", err, notificationsvc.ErrNotificationNotFound)
	}

	updated, err := inbox.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if updated != 1 {
		t.Fatalf("unexpected updated count: got %d want %d", updated, 1)
	}

	items, _ = inbox.List(ctx, userID, 10)
	for _, n := range items {
		if n.ReadAt == nil {
			t.Fatalf("notification %s still unread", n.ID)
		}
	}
}

func TestInboxValidation(t *testing.T) {
	inbox := notificationsvc.NewInbox(memory.NewNotifications())
	if _, err := inbox.List(context.Background(), uuid.Nil, 10); !errors.Is(err, notificationsvc.ErrValidation) {
		t.Fatalf("unexpected error: got %v want %v", err, notificationsvc.ErrValidation)
	}
	if err := inbox.MarkRead(context.Background(), uuid.New(), uuid.Nil); !errors.Is(err, notificationsvc.ErrValidation) {
		t.Fatalf("unexpected error: got %v want %v", err, notificationsvc.ErrValidation)
	}
}
