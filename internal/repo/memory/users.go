package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/model"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
)

type Users struct {
	db *DB
}

func NewUsers(db *DB) *Users {
	return &Users{db: db}
}

func (r *Users) GetByID(_ context.Context, userID uuid.UUID) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return row.user, nil
}

func (r *Users) FindByContact(_ context.Context, phone, email string) (pgrepo.UserCredentials, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	phone = strings.TrimSpace(phone)
	email = strings.ToLower(strings.TrimSpace(email))
	for _, row := range r.db.users {
		u := row.user
		if (phone != "" && u.Phone != nil && *u.Phone == phone) || (email != "" && u.Email != nil && *u.Email == email) {
			return pgrepo.UserCredentials{User: u, PasswordHash: row.passwordHash}, nil
		}
	}
	return pgrepo.UserCredentials{}, pgrepo.ErrUserNotFound
}

func (r *Users) Create(_ context.Context, input pgrepo.CreateUserInput) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, row := range r.db.users {
		u := row.user
		if (input.Phone != nil && u.Phone != nil && *u.Phone == *input.Phone) ||
			(input.Email != nil && u.Email != nil && *u.Email == *input.Email) {
			return model.User{}, pgrepo.ErrUserExists
		}
	}

	photos := input.Photos
	if photos == nil {
		photos = []string{}
	}
	u := model.User{
		ID:         uuid.New(),
		Phone:      input.Phone,
		Email:      input.Email,
		Name:       input.Name,
		Gender:     input.Gender,
		LookingFor: input.LookingFor,
		Bio:        input.Bio,
		Photos:     photos,
		Birthdate:  input.Birthdate,
		IsVerified: input.IsVerified,
		CreatedAt:  time.Now().UTC(),
	}
	r.db.users[u.ID] = userRow{user: u, passwordHash: input.PasswordHash}
	return u, nil
}

func (r *Users) SetLive(_ context.Context, userID uuid.UUID, until time.Time) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	until = until.UTC()
	row.user.IsLive = true
	row.user.LiveUntil = &until
	r.db.users[userID] = row
	return row.user, nil
}

func (r *Users) ClearLive(_ context.Context, userID uuid.UUID) (model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	row.user.IsLive = false
	row.user.LiveUntil = nil
	r.db.users[userID] = row
	return row.user, nil
}
