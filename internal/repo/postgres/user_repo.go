package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibecheck/backend/internal/domain/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

// UserCredentials is the login view of a user row.
type UserCredentials struct {
	User         model.User
	PasswordHash *string
}

type CreateUserInput struct {
	Phone        *string
	Email        *string
	PasswordHash *string
	Name         string
	Gender       string
	LookingFor   string
	Bio          string
	Photos       []string
	Birthdate    *time.Time
	IsVerified   bool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `
	id,
	phone,
	email,
	name,
	gender,
	looking_for,
	bio,
	photos,
	birthdate,
	is_verified,
	is_live,
	live_until,
	created_at`

func scanUser(row pgx.Row, extra ...any) (model.User, error) {
	var u model.User
	dest := []any{
		&u.ID,
		&u.Phone,
		&u.Email,
		&u.Name,
		&u.Gender,
		&u.LookingFor,
		&u.Bio,
		&u.Photos,
		&u.Birthdate,
		&u.IsVerified,
		&u.IsLive,
		&u.LiveUntil,
		&u.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.User{}, err
	}
	if u.Photos == nil {
		u.Photos = []string{}
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID uuid.UUID) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID == uuid.Nil {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT`+userColumns+`
FROM users
WHERE id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByContact(ctx context.Context, phone, email string) (UserCredentials, error) {
	if r.pool == nil {
		return UserCredentials{}, fmt.Errorf("postgres pool is nil")
	}
	phone = strings.TrimSpace(phone)
	email = strings.ToLower(strings.TrimSpace(email))
	if phone == "" && email == "" {
		return UserCredentials{}, fmt.Errorf("phone or email is required")
	}

	var creds UserCredentials
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT`+userColumns+`,
	password_hash
FROM users
WHERE ($1 <> '' AND phone = $1) OR ($2 <> '' AND email = $2)
ORDER BY created_at ASC
LIMIT 1
`, phone, email), &creds.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserCredentials{}, ErrUserNotFound
		}
		return UserCredentials{}, fmt.Errorf("find user by contact: %w", err)
	}
	creds.User = user

	return creds, nil
}

func (r *UserRepo) Create(ctx context.Context, input CreateUserInput) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if input.Phone == nil && input.Email == nil {
		return model.User{}, fmt.Errorf("phone or email is required")
	}
	photos := input.Photos
	if photos == nil {
		photos = []string{}
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (
	phone,
	email,
	password_hash,
	name,
	gender,
	looking_for,
	bio,
	photos,
	birthdate,
	is_verified,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
RETURNING`+userColumns,
		input.Phone,
		input.Email,
		input.PasswordHash,
		input.Name,
		input.Gender,
		input.LookingFor,
		input.Bio,
		photos,
		input.Birthdate,
		input.IsVerified,
	))
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return model.User{}, ErrUserExists
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) SetLive(ctx context.Context, userID uuid.UUID, until time.Time) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID == uuid.Nil {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
UPDATE users
SET is_live = TRUE, live_until = $2, updated_at = NOW()
WHERE id = $1
RETURNING`+userColumns, userID, until.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("set user live: %w", err)
	}

	return user, nil
}

func (r *UserRepo) ClearLive(ctx context.Context, userID uuid.UUID) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID == uuid.Nil {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
UPDATE users
SET is_live = FALSE, live_until = NULL, updated_at = NOW()
WHERE id = $1
RETURNING`+userColumns, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("clear user live: %w", err)
	}

	return user, nil
}

func (r *UserRepo) Ping(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	return r.pool.Ping(ctx)
}
