package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendChatRequestRequest struct {
	ToUserID uuid.UUID `json:"to_user_id"`
	Message  string    `json:"message,omitempty"`
}

type ChatRequestResponse struct {
	ID          uuid.UUID  `json:"id"`
	FromUserID  uuid.UUID  `json:"from_user_id"`
	ToUserID    uuid.UUID  `json:"to_user_id"`
	Message     *string    `json:"message"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at"`
}

type SendChatRequestResponse struct {
	Request ChatRequestResponse `json:"request"`
}

type ChatRequestItemResponse struct {
	ChatRequestResponse
	User             UserSummaryResponse `json:"user"`
	MinutesRemaining int                 `json:"minutes_remaining"`
}

type ChatRequestsResponse struct {
	Items []ChatRequestItemResponse `json:"items"`
}

type AcceptChatRequestResponse struct {
	OK      bool      `json:"ok"`
	MatchID uuid.UUID `json:"match_id"`
}
