package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Content string `json:"content"`
}

type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	SenderName string     `json:"sender_name,omitempty"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	ViewedAt   *time.Time `json:"viewed_at"`
	IsMine     bool       `json:"is_mine"`
}

type MessagesResponse struct {
	Items []MessageResponse `json:"items"`
}
