package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/enums"
)

type Interaction struct {
	ID         uuid.UUID               `json:"id"`
	FromUserID uuid.UUID               `json:"from_user_id"`
	ToUserID   uuid.UUID               `json:"to_user_id"`
	Action     enums.InteractionAction `json:"action"`
	CreatedAt  time.Time               `json:"created_at"`
}
