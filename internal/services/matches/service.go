package matches

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
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
)

const defaultListLimit = 100

var (
	ErrValidation    = errors.New("validation error")
	ErrMatchNotFound = errors.New("match not found")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type MatchStore interface {
	Form(ctx context.Context, tx pgx.Tx, pair rules.Pair, now time.Time) (uuid.UUID, bool, error)
	GetForMember(ctx context.Context, matchID, userID uuid.UUID) (model.Match, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]pgrepo.MatchListRecord, error)
}

type Notifier interface {
	Emit(ctx context.Context, n model.Notification)
}

type Metrics interface {
	MatchFormed(source string, created bool)
}

type Dependencies struct {
	Tx         TxRunner
	MatchStore MatchStore
	Notifier   Notifier
	Metrics    Metrics
}

// Result is the outcome of a formation call. Created is false when the pair was already matched.
type Result struct {
	MatchID uuid.UUID
	Pair    rules.Pair
	Created bool
}

type Item struct {
	MatchID   uuid.UUID
	MatchedAt time.Time
	User      model.UserSummary
}

type Service struct {
	tx         TxRunner
	matchStore MatchStore
	notifier   Notifier
	metrics    Metrics
	now        func() time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:         deps.Tx,
		matchStore: deps.MatchStore,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// FormInTx forms the match for {x, y} inside the caller's transaction.
// It is idempotent and independent of argument order.
func (s *Service) FormInTx(ctx context.Context, tx pgx.Tx, x, y uuid.UUID, source string) (Result, error) {
	if s.matchStore == nil {
		return Result{}, fmt.Errorf("match store is not configured")
	}
	pair, err := rules.CanonicalPair(x, y)
	if err != nil {
		return Result{}, ErrValidation
	}

	matchID, created, err := s.matchStore.Form(ctx, tx, pair, s.now())
	if err != nil {
		return Result{}, err
	}
	if s.metrics != nil {
		s.metrics.MatchFormed(source, created)
	}

	return Result{MatchID: matchID, Pair: pair, Created: created}, nil
}

// FormMatch runs FormInTx in its own transaction and notifies both users when a match is new.
func (s *Service) FormMatch(ctx context.Context, x, y uuid.UUID) (Result, error) {
	if s.tx == nil {
		return Result{}, fmt.Errorf("match dependencies are not configured")
	}

	var res Result
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		var err error
		res, err = s.FormInTx(txCtx, tx, x, y, "direct")
		return err
	}); err != nil {
		return Result{}, err
	}

	s.NotifyFormed(ctx, res)
	return res, nil
}

// NotifyFormed emits a match notification to both members. Call after commit.
func (s *Service) NotifyFormed(ctx context.Context, res Result) {
	if s.notifier == nil || !res.Created {
		return
	}
	for _, userID := range []uuid.UUID{res.Pair.Lo, res.Pair.Hi} {
		other := res.Pair.Hi
		if userID == res.Pair.Hi {
			other = res.Pair.Lo
		}
		s.notifier.Emit(ctx, model.Notification{
			UserID: userID,
			Type:   enums.NotificationTypeMatch,
			Title:  "It's a match!",
			Body:   "You both liked each other. Say hi!",
			Data: map[string]any{
				"match_id": res.MatchID.String(),
				"user_id":  other.String(),
			},
		})
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]Item, error) {
	if userID == uuid.Nil {
		return nil, ErrValidation
	}
	if s.matchStore == nil {
		return nil, fmt.Errorf("match store is not configured")
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	rows, err := s.matchStore.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
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
			MatchID:   row.MatchID,
			MatchedAt: row.MatchedAt,
			User:      user,
		})
	}
	return items, nil
}

// GetForMember returns the match only when userID is one of its members.
func (s *Service) GetForMember(ctx context.Context, matchID, userID uuid.UUID) (model.Match, error) {
	if matchID == uuid.Nil || userID == uuid.Nil {
		return model.Match{}, ErrValidation
	}
	if s.matchStore == nil {
		return model.Match{}, fmt.Errorf("match store is not configured")
	}

	m, err := s.matchStore.GetForMember(ctx, matchID, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, err
	}
	return m, nil
}
