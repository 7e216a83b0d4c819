package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/model"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
)

const (
	DefaultLiveMinutes = 60
	MaxLiveMinutes     = 240
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

type Store interface {
	GetByID(ctx context.Context, userID uuid.UUID) (model.User, error)
	SetLive(ctx context.Context, userID uuid.UUID, until time.Time) (model.User, error)
	ClearLive(ctx context.Context, userID uuid.UUID) (model.User, error)
}

// Service is the user directory: lookups and the liveness window.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (model.User, error) {
	if userID == uuid.Nil {
		return model.User{}, ErrValidation
	}
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is not configured")
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// IsAvailable reports whether the user exists and its liveness window is open at now.
func (s *Service) IsAvailable(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.AvailableAt(now), nil
}

// GoLive opens the liveness window for minutes. Zero selects the default.
func (s *Service) GoLive(ctx context.Context, userID uuid.UUID, minutes int) (model.User, error) {
	if userID == uuid.Nil {
		return model.User{}, ErrValidation
	}
	if minutes == 0 {
		minutes = DefaultLiveMinutes
	}
	if minutes < 1 || minutes > MaxLiveMinutes {
		return model.User{}, ErrValidation
	}
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is not configured")
	}

	until := s.now().UTC().Add(time.Duration(minutes) * time.Minute)
	user, err := s.store.SetLive(ctx, userID, until)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("set live: %w", err)
	}

	return user, nil
}

func (s *Service) GoOffline(ctx context.Context, userID uuid.UUID) (model.User, error) {
	if userID == uuid.Nil {
		return model.User{}, ErrValidation
	}
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is not configured")
	}

	user, err := s.store.ClearLive(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("clear live: %w", err)
	}

	return user, nil
}
