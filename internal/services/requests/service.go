package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/domain/rules"
	"github.com/vibecheck/backend/internal/pkg/validate"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
	matchsvc "github.com/vibecheck/backend/internal/services/matches"
	ratesvc "github.com/vibecheck/backend/internal/services/rate"
)

const defaultListLimit = 100

var (
	ErrValidation           = errors.New("validation error")
	ErrTargetUnavailable    = errors.New("target user is not available")
	ErrRequestNotActionable = errors.New("chat request is not actionable")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type RequestStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, fromUserID, toUserID uuid.UUID, message *string, now, expiresAt time.Time) (model.ChatRequest, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) (model.ChatRequest, error)
	Respond(ctx context.Context, tx pgx.Tx, requestID, responderID uuid.UUID, status enums.ChatRequestStatus, now time.Time) (model.ChatRequest, error)
	ListInbound(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]pgrepo.ChatRequestListRecord, error)
	ListOutbound(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]pgrepo.ChatRequestListRecord, error)
}

// UserDirectory answers whether a user can receive a chat request; unknown users are unavailable.
type UserDirectory interface {
	IsAvailable(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
}

type MatchFormer interface {
	FormInTx(ctx context.Context, tx pgx.Tx, x, y uuid.UUID, source string) (matchsvc.Result, error)
	NotifyFormed(ctx context.Context, res matchsvc.Result)
}

type Notifier interface {
	Emit(ctx context.Context, n model.Notification)
}

type RateLimiter interface {
	Allow(ctx context.Context, action ratesvc.Action, userID uuid.UUID) (int64, bool, error)
}

type Metrics interface {
	ChatRequest(operation, outcome string)
}

type Config struct {
	RequestTTL       time.Duration
	OutboundLookback time.Duration
}

type Dependencies struct {
	Tx           TxRunner
	RequestStore RequestStore
	Users        UserDirectory
	Matches      MatchFormer
	Notifier     Notifier
	RateLimiter  RateLimiter
	Metrics      Metrics
}

// Item is a listed request with the other party's summary.
type Item struct {
	Request          model.ChatRequest
	User             model.UserSummary
	MinutesRemaining int
}

type Service struct {
	tx          TxRunner
	store       RequestStore
	users       UserDirectory
	matches     MatchFormer
	notifier    Notifier
	rateLimiter RateLimiter
	metrics     Metrics
	cfg         Config
	now         func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.RequestTTL <= 0 {
		cfg.RequestTTL = rules.DefaultChatRequestTTL
	}
	if cfg.OutboundLookback <= 0 {
		cfg.OutboundLookback = rules.DefaultOutboundLookback
	}

	return &Service{
		tx:          deps.Tx,
		store:       deps.RequestStore,
		users:       deps.Users,
		matches:     deps.Matches,
		notifier:    deps.Notifier,
		rateLimiter: deps.RateLimiter,
		metrics:     deps.Metrics,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Send creates or refreshes the request from sender to target. Any earlier request for
// the same ordered pair is overwritten and becomes pending again with a fresh expiry.
func (s *Service) Send(ctx context.Context, fromUserID, toUserID uuid.UUID, message string) (model.ChatRequest, error) {
	if fromUserID == uuid.Nil || toUserID == uuid.Nil || fromUserID == toUserID {
		return model.ChatRequest{}, ErrValidation
	}
	msg, err := normalizeMessage(message)
	if err != nil {
		return model.ChatRequest{}, err
	}
	if s.tx == nil || s.store == nil || s.users == nil {
		return model.ChatRequest{}, fmt.Errorf("chat request dependencies are not configured")
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, ratesvc.ActionChatRequest, fromUserID)
		if err != nil {
			return model.ChatRequest{}, fmt.Errorf("apply chat request rate limiter: %w", err)
		}
		if !allowed {
			s.observe("send", "too_fast")
			return model.ChatRequest{}, ratesvc.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	now := s.now().UTC()
	available, err := s.users.IsAvailable(ctx, toUserID, now)
	if err != nil {
		return model.ChatRequest{}, fmt.Errorf("check target availability: %w", err)
	}
	if !available {
		s.observe("send", "unavailable")
		return model.ChatRequest{}, ErrTargetUnavailable
	}

	var req model.ChatRequest
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		var err error
		req, err = s.store.Upsert(txCtx, tx, fromUserID, toUserID, msg, now, now.Add(s.cfg.RequestTTL))
		return err
	}); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.ChatRequest{}, ErrTargetUnavailable
		}
		return model.ChatRequest{}, fmt.Errorf("send chat request: %w", err)
	}
	s.observe("send", "ok")

	data := map[string]any{
		"request_id":   req.ID.String(),
		"from_user_id": fromUserID.String(),
	}
	if msg != nil {
		data["message"] = *msg
	}
	s.emit(ctx, model.Notification{
		UserID: toUserID,
		Type:   enums.NotificationTypeChatRequest,
		Title:  "New chat request",
		Body:   "Someone wants to chat with you. Reply before it expires.",
		Data:   data,
	})

	return req, nil
}

// Accept moves a pending, unexpired request addressed to responder into accepted and
// forms the match in the same transaction. Every other case is ErrRequestNotActionable.
func (s *Service) Accept(ctx context.Context, responderID, requestID uuid.UUID) (uuid.UUID, error) {
	if responderID == uuid.Nil || requestID == uuid.Nil {
		return uuid.Nil, ErrValidation
	}
	if s.tx == nil || s.store == nil || s.matches == nil {
		return uuid.Nil, fmt.Errorf("chat request dependencies are not configured")
	}

	var (
		req    model.ChatRequest
		formed matchsvc.Result
	)
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		locked, err := s.store.GetForUpdate(txCtx, tx, requestID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrChatRequestNotFound) {
				return ErrRequestNotActionable
			}
			return err
		}

		now := s.now().UTC()
		if !rules.ChatRequestAcceptable(locked, responderID, now) {
			return ErrRequestNotActionable
		}

		req, err = s.store.Respond(txCtx, tx, requestID, responderID, enums.ChatRequestStatusAccepted, now)
		if err != nil {
			if errors.Is(err, pgrepo.ErrChatRequestNotFound) {
				return ErrRequestNotActionable
			}
			return err
		}

		formed, err = s.matches.FormInTx(txCtx, tx, req.FromUserID, responderID, "chat_request")
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRequestNotActionable) {
			s.observe("accept", "not_actionable")
			return uuid.Nil, ErrRequestNotActionable
		}
		s.observe("accept", "error")
		return uuid.Nil, fmt.Errorf("accept chat request: %w", err)
	}
	s.observe("accept", "ok")

	s.emit(ctx, model.Notification{
		UserID: req.FromUserID,
		Type:   enums.NotificationTypeRequestAccepted,
		Title:  "Chat request accepted",
		Body:   "Your chat request was accepted. Start the conversation!",
		Data: map[string]any{
			"request_id": req.ID.String(),
			"match_id":   formed.MatchID.String(),
			"user_id":    responderID.String(),
		},
	})
	s.matches.NotifyFormed(ctx, formed)

	return formed.MatchID, nil
}

// Reject closes a pending request addressed to responder. Expired requests may still be rejected.
func (s *Service) Reject(ctx context.Context, responderID, requestID uuid.UUID) error {
	if responderID == uuid.Nil || requestID == uuid.Nil {
		return ErrValidation
	}
	if s.tx == nil || s.store == nil {
		return fmt.Errorf("chat request dependencies are not configured")
	}

	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		_, err := s.store.Respond(txCtx, tx, requestID, responderID, enums.ChatRequestStatusRejected, s.now().UTC())
		if errors.Is(err, pgrepo.ErrChatRequestNotFound) {
			return ErrRequestNotActionable
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrRequestNotActionable) {
			s.observe("reject", "not_actionable")
			return ErrRequestNotActionable
		}
		s.observe("reject", "error")
		return fmt.Errorf("reject chat request: %w", err)
	}
	s.observe("reject", "ok")

	return nil
}

// ListInbound returns pending, unexpired requests addressed to userID, newest first.
func (s *Service) ListInbound(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	if userID == uuid.Nil {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("chat request store is not configured")
	}

	now := s.now().UTC()
	rows, err := s.store.ListInbound(ctx, userID, now, defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toItems(rows, now), nil
}

// ListOutbound returns requests sent by userID within the lookback window in any status.
func (s *Service) ListOutbound(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	if userID == uuid.Nil {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("chat request store is not configured")
	}

	now := s.now().UTC()
	rows, err := s.store.ListOutbound(ctx, userID, now.Add(-s.cfg.OutboundLookback), defaultListLimit)
	if err != nil {
		return nil, err
	}
	return toItems(rows, now), nil
}

func toItems(rows []pgrepo.ChatRequestListRecord, now time.Time) []Item {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		user := row.Counterpart
		if user.Photos == nil {
			user.Photos = []string{}
		}
		if row.Birthdate != nil {
			age := rules.AgeAt(*row.Birthdate, now)
			user.Age = &age
		}
		items = append(items, Item{
			Request:          row.Request,
			User:             user,
			MinutesRemaining: rules.MinutesRemaining(row.Request.ExpiresAt, now),
		})
	}
	return items
}

func normalizeMessage(raw string) (*string, error) {
	if !validate.Required(raw) {
		return nil, nil
	}
	msg, ok := validate.Text(raw, rules.MaxChatRequestMessage)
	if !ok {
		return nil, ErrValidation
	}
	return &msg, nil
}

func (s *Service) emit(ctx context.Context, n model.Notification) {
	if s.notifier != nil {
		s.notifier.Emit(ctx, n)
	}
}

func (s *Service) observe(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.ChatRequest(operation, outcome)
	}
}
