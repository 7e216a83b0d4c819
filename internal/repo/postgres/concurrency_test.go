package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibecheck/backend/internal/domain/enums"
	"github.com/vibecheck/backend/internal/domain/model"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
	interactionsvc "github.com/vibecheck/backend/internal/services/interactions"
	matchsvc "github.com/vibecheck/backend/internal/services/matches"
	requestsvc "github.com/vibecheck/backend/internal/services/requests"
	usersvc "github.com/vibecheck/backend/internal/services/users"
)

const concurrencyRounds = 10

type pgEnv struct {
	pool         *pgxpool.Pool
	users        *pgrepo.UserRepo
	interactions *interactionsvc.Service
	requests     *requestsvc.Service
}

func newPGEnv(t *testing.T) pgEnv {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgrepo.NewPool(ctx, dsn, 8)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := pgrepo.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tx := pgrepo.NewTxManager(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	matches := matchsvc.NewService(matchsvc.Dependencies{Tx: tx, MatchStore: pgrepo.NewMatchRepo(pool)})

	return pgEnv{
		pool:  pool,
		users: userRepo,
		interactions: interactionsvc.NewService(interactionsvc.Dependencies{
			Tx:               tx,
			InteractionStore: pgrepo.NewInteractionRepo(pool),
			Matches:          matches,
		}),
		requests: requestsvc.NewService(requestsvc.Dependencies{
			Tx:           tx,
			RequestStore: pgrepo.NewChatRequestRepo(pool),
			Users:        usersvc.NewService(userRepo),
			Matches:      matches,
		}, requestsvc.Config{}),
	}
}

func (e pgEnv) createUser(t *testing.T, name string) model.User {
	t.Helper()
	email := name + "-" + uuid.NewString() + "@test.local"
	user, err := e.users.Create(context.Background(), pgrepo.CreateUserInput{Email: &email, Name: name})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func (e pgEnv) countMatches(t *testing.T, x, y uuid.UUID) int {
	t.Helper()
	var n int
	err := e.pool.QueryRow(context.Background(), `
		SELECT count(*) FROM matches
		WHERE (user_lo_id = $1 AND user_hi_id = $2) OR (user_lo_id = $2 AND user_hi_id = $1)`,
		x, y,
	).Scan(&n)
	if err != nil {
		t.Fatalf("count matches: %v", err)
	}
	return n
}

func TestConcurrentMutualLikesFormOneMatchRow(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()

	for round := 0; round < concurrencyRounds; round++ {
		a := env.createUser(t, "a")
		b := env.createUser(t, "b")

		var wg sync.WaitGroup
		results := make([]interactionsvc.Result, 2)
		errs := make([]error, 2)
		for i, pair := range [][2]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}} {
			wg.Add(1)
			go func(i int, from, to uuid.UUID) {
				defer wg.Done()
				results[i], errs[i] = env.interactions.Record(ctx, from, to, enums.InteractionActionLike)
			}(i, pair[0], pair[1])
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("round %d like #%d: %v", round, i, err)
			}
		}
		if results[0].IsMatch == results[1].IsMatch {
			t.Fatalf("round %d: exactly one like should observe the match: %+v", round, results)
		}
		if got := env.countMatches(t, a.ID, b.ID); got != 1 {
			t.Fatalf("round %d: unexpected match rows: got %d want 1", round, got)
		}
	}
}

func TestLikeRacingAcceptSharesOneMatch(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()

	for round := 0; round < concurrencyRounds; round++ {
		a := env.createUser(t, "a")
		b := env.createUser(t, "b")
		if _, err := env.users.SetLive(ctx, b.ID, time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("set live: %v", err)
		}
		if _, err := env.interactions.Record(ctx, a.ID, b.ID, enums.InteractionActionLike); err != nil {
			t.Fatalf("round %d a likes b: %v", round, err)
		}
		req, err := env.requests.Send(ctx, a.ID, b.ID, "")
		if err != nil {
			t.Fatalf("round %d send: %v", round, err)
		}

		var (
			wg        sync.WaitGroup
			liked     interactionsvc.Result
			accepted  uuid.UUID
			likeErr   error
			acceptErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			liked, likeErr = env.interactions.Record(ctx, b.ID, a.ID, enums.InteractionActionLike)
		}()
		go func() {
			defer wg.Done()
			accepted, acceptErr = env.requests.Accept(ctx, b.ID, req.ID)
		}()
		wg.Wait()

		if likeErr != nil || acceptErr != nil {
			t.Fatalf("round %d: like err %v, accept err %v", round, likeErr, acceptErr)
		}
		if !liked.IsMatch || liked.MatchID != accepted {
			t.Fatalf("round %d: unexpected match ids: like %+v accept %s", round, liked, accepted)
		}
		if got := env.countMatches(t, a.ID, b.ID); got != 1 {
			t.Fatalf("round %d: unexpected match rows: got %d want 1", round, got)
		}
	}
}
