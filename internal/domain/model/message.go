package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID  `json:"id"`
	MatchID    uuid.UUID  `json:"match_id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	SenderName string     `json:"sender_name"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	ViewedAt   *time.Time `json:"viewed_at"`
}
