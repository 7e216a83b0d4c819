package dto

import (
	"time"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID        uuid.UUID      `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
}

type NotificationsResponse struct {
	Items []NotificationResponse `json:"items"`
}

type MarkAllReadResponse struct {
	OK      bool  `json:"ok"`
	Updated int64 `json:"updated"`
}
