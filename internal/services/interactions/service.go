package interactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/domain/rules"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
	matchsvc "github.com/vibecheck/backend/internal/services/matches"
	ratesvc "github.com/vibecheck/backend/internal/services/rate"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrDuplicateInteraction = errors.New("interaction already recorded")
	ErrTargetNotFound       = errors.New("target user not found")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type InteractionStore interface {
	LockPair(ctx context.Context, tx pgx.Tx, key string) error
	Insert(ctx context.Context, tx pgx.Tx, fromUserID, toUserID uuid.UUID, action enums.InteractionAction, now time.Time) (model.Interaction, error)
	HasLike(ctx context.Context, tx pgx.Tx, fromUserID, toUserID uuid.UUID) (bool, error)
}

type MatchFormer interface {
	FormInTx(ctx context.Context, tx pgx.Tx, x, y uuid.UUID, source string) (matchsvc.Result, error)
	NotifyFormed(ctx context.Context, res matchsvc.Result)
}

type RateLimiter interface {
	Allow(ctx context.Context, action ratesvc.Action, userID uuid.UUID) (int64, bool, error)
}

type Metrics interface {
	InteractionRecorded(action, outcome string)
}

type Dependencies struct {
	Tx               TxRunner
	InteractionStore InteractionStore
	Matches          MatchFormer
	RateLimiter      RateLimiter
	Metrics          Metrics
}

type Result struct {
	IsMatch bool
	MatchID uuid.UUID
}

type Service struct {
	tx           TxRunner
	interactions InteractionStore
	matches      MatchFormer
	rateLimiter  RateLimiter
	metrics      Metrics
	now          func() time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:           deps.Tx,
		interactions: deps.InteractionStore,
		matches:      deps.Matches,
		rateLimiter:  deps.RateLimiter,
		metrics:      deps.Metrics,
		now:          time.Now,
	}
}

func ParseAction(raw string) (enums.InteractionAction, error) {
	action := enums.InteractionAction(strings.ToLower(strings.TrimSpace(raw)))
	if !action.Valid() {
		return "", ErrValidation
	}
	return action, nil
}

// Record stores actor's like or pass on target. A like that meets a reciprocal like
// forms the match in the same transaction.
func (s *Service) Record(ctx context.Context, actorID, targetID uuid.UUID, action enums.InteractionAction) (Result, error) {
	if actorID == uuid.Nil || targetID == uuid.Nil || actorID == targetID || !action.Valid() {
		return Result{}, ErrValidation
	}
	if s.tx == nil || s.interactions == nil || s.matches == nil {
		return Result{}, fmt.Errorf("interaction dependencies are not configured")
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, ratesvc.ActionInteract, actorID)
		if err != nil {
			return Result{}, fmt.Errorf("apply interaction rate limiter: %w", err)
		}
		if !allowed {
			s.observe(action, "too_fast")
			return Result{}, ratesvc.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	pair, err := rules.CanonicalPair(actorID, targetID)
	if err != nil {
		return Result{}, ErrValidation
	}

	var (
		result Result
		formed matchsvc.Result
	)
	err = s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.interactions.LockPair(txCtx, tx, pair.LockKey()); err != nil {
			return err
		}
		if _, err := s.interactions.Insert(txCtx, tx, actorID, targetID, action, s.now()); err != nil {
			return err
		}
		if action != enums.InteractionActionLike {
			return nil
		}

		reciprocal, err := s.interactions.HasLike(txCtx, tx, targetID, actorID)
		if err != nil {
			return err
		}
		if !reciprocal {
			return nil
		}

		formed, err = s.matches.FormInTx(txCtx, tx, actorID, targetID, "interaction")
		if err != nil {
			return err
		}
		result = Result{IsMatch: true, MatchID: formed.MatchID}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrDuplicateInteraction):
			s.observe(action, "duplicate")
			return Result{}, ErrDuplicateInteraction
		case errors.Is(err, pgrepo.ErrUserNotFound):
			return Result{}, ErrTargetNotFound
		}
		s.observe(action, "error")
		return Result{}, fmt.Errorf("record interaction: %w", err)
	}

	if result.IsMatch {
		s.observe(action, "match")
		s.matches.NotifyFormed(ctx, formed)
	} else {
		s.observe(action, "recorded")
	}

	return result, nil
}

func (s *Service) observe(action enums.InteractionAction, outcome string) {
	if s.metrics != nil {
		s.metrics.InteractionRecorded(string(action), outcome)
	}
}
