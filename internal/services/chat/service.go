package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/domain/rules"
	"github.com/vibecheck/backend/internal/pkg/validate"
	matchsvc "github.com/vibecheck/backend/internal/services/matches"
)

const historyLimit = 500

var (
	ErrValidation    = errors.New("validation error")
	ErrMatchNotFound = errors.New("match not found")
)

type MessageStore interface {
	Create(ctx context.Context, matchID, senderID uuid.UUID, content string, now time.Time) (model.Message, error)
	ListByMatch(ctx context.Context, matchID uuid.UUID, limit int) ([]model.Message, error)
	MarkViewed(ctx context.Context, matchID, readerID uuid.UUID, now time.Time) (int64, error)
}

type MatchLookup interface {
	GetForMember(ctx context.Context, matchID, userID uuid.UUID) (model.Match, error)
}

type Notifier interface {
	Emit(ctx context.Context, n model.Notification)
}

type Dependencies struct {
	Messages MessageStore
	Matches  MatchLookup
	Notifier Notifier
}

type Service struct {
	messages MessageStore
	matches  MatchLookup
	notifier Notifier
	now      func() time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		messages: deps.Messages,
		matches:  deps.Matches,
		notifier: deps.Notifier,
		now:      time.Now,
	}
}

// History returns the conversation oldest first, then marks the counterpart's messages viewed.
// The returned slice reflects the state before marking.
func (s *Service) History(ctx context.Context, userID, matchID uuid.UUID) ([]model.Message, error) {
	if _, err := s.member(ctx, userID, matchID); err != nil {
		return nil, err
	}

	items, err := s.messages.ListByMatch(ctx, matchID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if _, err := s.messages.MarkViewed(ctx, matchID, userID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("mark messages viewed: %w", err)
	}

	return items, nil
}

func (s *Service) Send(ctx context.Context, userID, matchID uuid.UUID, content string) (model.Message, error) {
	content, ok := validate.Text(content, rules.MaxChatMessageContent)
	if !ok {
		return model.Message{}, ErrValidation
	}

	m, err := s.member(ctx, userID, matchID)
	if err != nil {
		return model.Message{}, err
	}

	msg, err := s.messages.Create(ctx, matchID, userID, content, s.now().UTC())
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}

	if other, ok := m.Counterpart(userID); ok && s.notifier != nil {
		s.notifier.Emit(ctx, model.Notification{
			UserID: other,
			Type:   enums.NotificationTypeMessage,
			Title:  "New message",
			Body:   preview(content),
			Data: map[string]any{
				"match_id":   matchID.String(),
				"message_id": msg.ID.String(),
				"sender_id":  userID.String(),
			},
		})
	}

	return msg, nil
}

func (s *Service) member(ctx context.Context, userID, matchID uuid.UUID) (model.Match, error) {
	if userID == uuid.Nil || matchID == uuid.Nil {
		return model.Match{}, ErrValidation
	}
	if s.messages == nil || s.matches == nil {
		return model.Match{}, fmt.Errorf("chat dependencies are not configured")
	}

	m, err := s.matches.GetForMember(ctx, matchID, userID)
	if err != nil {
		if errors.Is(err, matchsvc.ErrMatchNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("load match: %w", err)
	}
	return m, nil
}

func preview(content string) string {
	const max = 80
	if validate.MaxRunes(content, max) {
		return content
	}
	runes := []rune(content)
	return string(runes[:max]) + "…"
}
