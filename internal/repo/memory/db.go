// Package memory holds in-process fakes of the postgres repositories for service and
// handler tests. No binary links it; cmd/api and cmd/seed always run on Postgres.
//
// Every transaction holds one global lock and rolls back by restoring a snapshot.
// That makes concurrency tests here trivially serial: races against real row and
// advisory locks are covered by the TEST_POSTGRES_DSN tests in internal/repo/postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vibecheck/backend/internal/domain/model"
)

type DB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users        map[uuid.UUID]userRow
	interactions map[[2]uuid.UUID]model.Interaction
	matches      map[[2]uuid.UUID]model.Match
	chatRequests map[uuid.UUID]model.ChatRequest
	messages     []model.Message
}

type userRow struct {
	user         model.User
	passwordHash *string
}

func NewDB() *DB {
	return &DB{
		users:        map[uuid.UUID]userRow{},
		interactions: map[[2]uuid.UUID]model.Interaction{},
		matches:      map[[2]uuid.UUID]model.Match{},
		chatRequests: map[uuid.UUID]model.ChatRequest{},
	}
}

type snapshot struct {
	users        map[uuid.UUID]userRow
	interactions map[[2]uuid.UUID]model.Interaction
	matches      map[[2]uuid.UUID]model.Match
	chatRequests map[uuid.UUID]model.ChatRequest
	messages     []model.Message
}

func (db *DB) snapshot() snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := snapshot{
		users:        make(map[uuid.UUID]userRow, len(db.users)),
		interactions: make(map[[2]uuid.UUID]model.Interaction, len(db.interactions)),
		matches:      make(map[[2]uuid.UUID]model.Match, len(db.matches)),
		chatRequests: make(map[uuid.UUID]model.ChatRequest, len(db.chatRequests)),
		messages:     append([]model.Message(nil), db.messages...),
	}
	for k, v := range db.users {
		s.users[k] = v
	}
	for k, v := range db.interactions {
		s.interactions[k] = v
	}
	for k, v := range db.matches {
		s.matches[k] = v
	}
	for k, v := range db.chatRequests {
		s.chatRequests[k] = v
	}
	return s
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users = s.users
	db.interactions = s.interactions
	db.matches = s.matches
	db.chatRequests = s.chatRequests
	db.messages = s.messages
}

// WithTx runs fn with a nil pgx.Tx. Memory repositories ignore the handle.
func (db *DB) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	before := db.snapshot()
	if err := fn(ctx, nil); err != nil {
		db.restore(before)
		return err
	}
	return nil
}

func (db *DB) AddUser(u model.User) model.User {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Photos == nil {
		u.Photos = []string{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	db.users[u.ID] = userRow{user: u}
	return u
}

func (db *DB) CountMatches() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.matches)
}

func (db *DB) CountInteractions() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.interactions)
}

func (db *DB) ChatRequestsBetween(from, to uuid.UUID) []model.ChatRequest {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]model.ChatRequest, 0, 1)
	for _, r := range db.chatRequests {
		if r.FromUserID == from && r.ToUserID == to {
			out = append(out, r)
		}
	}
	return out
}

func (db *DB) summary(userID uuid.UUID) (model.UserSummary, *time.Time, bool) {
	row, ok := db.users[userID]
	if !ok {
		return model.UserSummary{}, nil, false
	}
	u := row.user
	return model.UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Photos: u.Photos,
		Bio:    u.Bio,
		Gender: u.Gender,
	}, u.Birthdate, true
}

func newestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}
