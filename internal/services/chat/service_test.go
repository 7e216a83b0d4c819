package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/repo/memory"
	matchsvc "github.com/vibecheck/backend/internal/services/matches"
)

type recordingNotifier struct {
	items []model.Notification
}

func (n *recordingNotifier) Emit(_ context.Context, item model.Notification) {
	n.items = append(n.items, item)
}

func TestChatBetweenMatchedUsers(t *testing.T) {
	db := memory.NewDB()
	a := db.AddUser(model.User{Name: "A"})
	b := db.AddUser(model.User{Name: "B"})
	stranger := db.AddUser(model.User{Name: "C"})
	matches := matchsvc.NewService(matchsvc.Dependencies{Tx: db, MatchStore: memory.NewMatches(db)})
	notifier := &recordingNotifier{}
	svc := NewService(Dependencies{
		Messages: memory.NewMessages(db),
		Matches:  matches,
		Notifier: notifier,
	})
	ctx := context.Background()

	res, err := matches.FormMatch(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("form match: %v", err)
	}

	msg, err := svc.Send(ctx, a.ID, res.MatchID, "  hello  ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "hello" || msg.SenderName != "A" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(notifier.items) != 1 || notifier.items[0].UserID != b.ID || notifier.items[0].Type != enums.NotificationTypeMessage {
		t.Fatalf("unexpected notifications: %+v", notifier.items)
	}

	svc.now = func() time.Time { return time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC) }
	history, err := svc.History(ctx, b.ID, res.MatchID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ViewedAt != nil {
		t.Fatalf("history should reflect state before marking: %+v", history)
	}
	history, err = svc.History(ctx, a.ID, res.MatchID)
	if err != nil {
		t.Fatalf("history for sender: %v", err)
	}
	if history[0].ViewedAt == nil {
		t.Fatalf("message should be viewed after the recipient read it")
	}

	if _, err := svc.History(ctx, stranger.ID, res.MatchID); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("stranger history: expected ErrMatchNotFound, got %v", err)
	}
	if _, err := svc.Send(ctx, stranger.ID, res.MatchID, "hey"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("stranger send: expected ErrMatchNotFound, got %v", err)
	}
	if _, err := svc.Send(ctx, a.ID, uuid.New(), "hey"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("unknown match: expected ErrMatchNotFound, got %v", err)
	}
}

func TestSendValidatesContent(t *testing.T) {
	svc := NewService(Dependencies{})

	for _, content := range []string{"", "   ", strings.Repeat("x", 2001)} {
		if _, err := svc.Send(context.Background(), uuid.New(), uuid.New(), content); !errors.Is(err, ErrValidation) {
			t.Fatalf("content len %d: expected ErrValidation, got %v", len(content), err)
		}
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("a", 100)
	if got := preview(long); len([]rune(got)) != 81 {
		t.Fatalf("unexpected preview length: %d", len([]rune(got)))
	}
	if got := preview("short"); got != "short" {
		t.Fatalf("unexpected preview: %q", got)
	}
}
