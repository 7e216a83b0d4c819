package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/enums"
)

type ChatRequest struct {
	ID          uuid.UUID               `json:"id"`
	FromUserID  uuid.UUID               `json:"from_user_id"`
	ToUserID    uuid.UUID               `json:"to_user_id"`
	Message     *string                 `json:"message"`
	Status      enums.ChatRequestStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	ExpiresAt   time.Time               `json:"expires_at"`
	RespondedAt *time.Time              `json:"responded_at"`
}
