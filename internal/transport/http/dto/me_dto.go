package dto

import (
	"time"

	"github.com/google/uuid"
)

type MeResponse struct {
	ID         uuid.UUID  `json:"id"`
	Phone      *string    `json:"phone,omitempty"`
	Email      *string    `json:"email,omitempty"`
	Name       string     `json:"name"`
	Gender     string     `json:"gender"`
	LookingFor string     `json:"looking_for"`
	Bio        string     `json:"bio"`
	Photos     []string   `json:"photos"`
	Age        *int       `json:"age,omitempty"`
	IsVerified bool       `json:"is_verified"`
	IsLive     bool       `json:"is_live"`
	LiveUntil  *time.Time `json:"live_until"`
}

type GoLiveRequest struct {
	Minutes int `json:"minutes"`
}

type LiveResponse struct {
	IsLive    bool       `json:"is_live"`
	LiveUntil *time.Time `json:"live_until"`
}
