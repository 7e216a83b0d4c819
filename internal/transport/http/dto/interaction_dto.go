package dto

import "github.com/google/uuid"

type InteractRequest struct {
	ToUserID uuid.UUID `json:"to_user_id"`
	Action   string    `json:"action"`
}

type InteractResponse struct {
	OK      bool       `json:"ok"`
	IsMatch bool       `json:"is_match"`
	MatchID *uuid.UUID `json:"match_id,omitempty"`
}
