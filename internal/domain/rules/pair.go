package rules

import (
	"bytes"
	"errors"

	"github.com/google/uuid"
)

var ErrSelfPair = errors.New("pair requires two distinct users")

// Pair is an unordered pair of users stored as (Lo, Hi) with Lo < Hi in byte order.
// Byte order of a UUID matches both its canonical text order and PostgreSQL uuid ordering.
type Pair struct {
	Lo uuid.UUID
	Hi uuid.UUID
}

func CanonicalPair(x, y uuid.UUID) (Pair, error) {
	if x == uuid.Nil || y == uuid.Nil {
		return Pair{}, errors.New("pair member is nil")
	}
	switch bytes.Compare(x[:], y[:]) {
	case 0:
		return Pair{}, ErrSelfPair
	case 1:
		x, y = y, x
	}
	return Pair{Lo: x, Hi: y}, nil
}

// LockKey is the advisory lock key that serializes writers touching the same pair.
func (p Pair) LockKey() string {
	return "pair:" + p.Lo.String() + ":" + p.Hi.String()
}
