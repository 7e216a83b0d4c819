package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID  `json:"id"`
	Phone      *string    `json:"phone,omitempty"`
	Email      *string    `json:"email,omitempty"`
	Name       string     `json:"name"`
	Gender     string     `json:"gender"`
	LookingFor string     `json:"looking_for"`
	Bio        string     `json:"bio"`
	Photos     []string   `json:"photos"`
	Birthdate  *time.Time `json:"birthdate,omitempty"`
	IsVerified bool       `json:"is_verified"`
	IsLive     bool       `json:"is_live"`
	LiveUntil  *time.Time `json:"live_until,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AvailableAt reports whether the user can receive direct chat requests at the given instant.
func (u User) AvailableAt(now time.Time) bool {
	if !u.IsLive || u.LiveUntil == nil {
		return false
	}
	return u.LiveUntil.After(now)
}

type UserSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Photos []string  `json:"photos"`
	Bio    string    `json:"bio"`
	Gender string    `json:"gender,omitempty"`
	Age    *int      `json:"age,omitempty"`
}
