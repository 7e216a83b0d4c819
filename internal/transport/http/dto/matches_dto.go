package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserSummaryResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Photos []string  `json:"photos"`
	Bio    string    `json:"bio"`
	Age    *int      `json:"age,omitempty"`
}

type MatchItemResponse struct {
	MatchID   uuid.UUID           `json:"match_id"`
	MatchedAt time.Time           `json:"matched_at"`
	User      UserSummaryResponse `json:"user"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}
