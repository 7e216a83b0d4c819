package model

import (
	"time"

	"github.com/google/uuid"
)

type Match struct {
	ID        uuid.UUID `json:"id"`
	UserLoID  uuid.UUID `json:"user_lo_id"`
	UserHiID  uuid.UUID `json:"user_hi_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Match) HasUser(userID uuid.UUID) bool {
	return m.UserLoID == userID || m.UserHiID == userID
}

func (m Match) Counterpart(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case m.UserLoID:
		return m.UserHiID, true
	case m.UserHiID:
		return m.UserLoID, true
	default:
		return uuid.Nil, false
	}
}
