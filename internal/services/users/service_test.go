package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/model"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
)

type memoryStore struct {
	users map[uuid.UUID]model.User
}

func (s *memoryStore) GetByID(_ context.Context, userID uuid.UUID) (model.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return u, nil
}

func (s *memoryStore) SetLive(_ context.Context, userID uuid.UUID, until time.Time) (model.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	u.IsLive = true
	u.LiveUntil = &until
	s.users[userID] = u
	return u, nil
}

func (s *memoryStore) ClearLive(_ context.Context, userID uuid.UUID) (model.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	u.IsLive = false
	u.LiveUntil = nil
	s.users[userID] = u
	return u, nil
}

func TestGoLiveOpensWindow(t *testing.T) {
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	id := uuid.New()
	store := &memoryStore{users: map[uuid.UUID]model.User{id: {ID: id, Name: "Ana"}}}
	svc := NewService(store)
	svc.now = func() time.Time { return now }

	user, err := svc.GoLive(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("go live: %v", err)
	}
	want := now.Add(DefaultLiveMinutes * time.Minute)
	if !user.IsLive || user.LiveUntil == nil || !user.LiveUntil.Equal(want) {
		t.Fatalf("unexpected live window: live=%v until=%v want %v", user.IsLive, user.LiveUntil, want)
	}

	available, err := svc.IsAvailable(context.Background(), id, now.Add(59*time.Minute))
	if err != nil || !available {
		t.Fatalf("expected available inside window: available=%v err=%v", available, err)
	}
	available, err = svc.IsAvailable(context.Background(), id, want)
	if err != nil || available {
		t.Fatalf("expected unavailable at window end: available=%v err=%v", available, err)
	}

	if _, err := svc.GoOffline(context.Background(), id); err != nil {
		t.Fatalf("go offline: %v", err)
	}
	available, err = svc.IsAvailable(context.Background(), id, now)
	if err != nil || available {
		t.Fatalf("expected unavailable after offline: available=%v err=%v", available, err)
	}
}

func TestGoLiveValidatesMinutes(t *testing.T) {
	svc := NewService(&memoryStore{users: map[uuid.UUID]model.User{}})

	for _, minutes := range []int{-1, MaxLiveMinutes + 1} {
		if _, err := svc.GoLive(context.Background(), uuid.New(), minutes); !errors.Is(err, ErrValidation) {
			t.Fatalf("minutes=%d: expected ErrValidation, got %v", minutes, err)
		}
	}
}

func TestUnknownUserIsNotAvailable(t *testing.T) {
	svc := NewService(&memoryStore{users: map[uuid.UUID]model.User{}})

	available, err := svc.IsAvailable(context.Background(), uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("is available: %v", err)
	}
	if available {
		t.Fatalf("unknown user must not be available")
	}
	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
