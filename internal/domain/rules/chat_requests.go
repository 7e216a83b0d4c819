package rules

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
)

const (
	DefaultChatRequestTTL   = time.Hour
	DefaultOutboundLookback = 24 * time.Hour
	MaxChatRequestMessage   = 200
	MaxChatMessageContent   = 2000
)

func ChatRequestExpired(req model.ChatRequest, now time.Time) bool {
	return !req.ExpiresAt.After(now)
}

// ChatRequestAcceptable holds only for a pending, unexpired request answered by its recipient.
func ChatRequestAcceptable(req model.ChatRequest, responder uuid.UUID, now time.Time) bool {
	if req.Status != enums.ChatRequestStatusPending {
		return false
	}
	if req.ToUserID != responder {
		return false
	}
	return !ChatRequestExpired(req, now)
}

// ChatRequestRejectable ignores expiry: rejecting a stale request is harmless.
func ChatRequestRejectable(req model.ChatRequest, responder uuid.UUID) bool {
	return req.Status == enums.ChatRequestStatusPending && req.ToUserID == responder
}

func MinutesRemaining(expiresAt, now time.Time) int {
	left := expiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Round(left.Minutes()))
}
