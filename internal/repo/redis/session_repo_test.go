package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/vibecheck/backend/internal/services/auth"
)

func newTestSessionRepo(t *testing.T) (*SessionRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepo(client), mr
}

func TestSessionRepoStoresOnlyRefreshDigest(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()
	session := authsvc.SessionRecord{SID: "sid-1", UserID: uuid.New(), Role: "user", ExpiresAt: time.Now().Add(time.Hour)}

	if err := repo.Create(ctx, session, "raw-refresh"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if mr.Exists(refreshPrefix + "raw-refresh") {
		t.Fatalf("raw refresh token must not be used as a key")
	}
	if !mr.Exists(refreshKey(refreshDigest("raw-refresh"))) {
		t.Fatalf("expected refresh digest key")
	}

	got, err := repo.GetByRefreshToken(ctx, "raw-refresh")
	if err != nil {
		t.Fatalf("get by refresh: %v", err)
	}
	if got.SID != session.SID || got.UserID != session.UserID {
		t.Fatalf("unexpected session: got %+v want %+v", got, session)
	}
}

func TestSessionRepoRotateInvalidatesOldToken(t *testing.T) {
	repo, _ := newTestSessionRepo(t)
	ctx := context.Background()
	session := authsvc.SessionRecord{SID: "sid-2", UserID: uuid.New(), Role: "user", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(ctx, session, "first"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.RotateRefresh(ctx, session.SID, "first", "second", time.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := repo.GetByRefreshToken(ctx, "first"); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("unexpected old token error: got %v want %v", err, authsvc.ErrRefreshNotFound)
	}
	if err := repo.RotateRefresh(ctx, session.SID, "first", "third", time.Now().Add(2*time.Hour)); !errors.Is(err, authsvc.ErrRefreshNotFound) {
		t.Fatalf("unexpected replay error: got %v want %v", err, authsvc.ErrRefreshNotFound)
	}
	if _, err := repo.GetByRefreshToken(ctx, "second"); err != nil {
		t.Fatalf("rotated token should resolve: %v", err)
	}
}

func TestSessionRepoDeleteAllForUser(t *testing.T) {
	repo, _ := newTestSessionRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	for _, sid := range []string{"a", "b"} {
		rec := authsvc.SessionRecord{SID: sid, UserID: userID, Role: "user", ExpiresAt: time.Now().Add(time.Hour)}
		if err := repo.Create(ctx, rec, "refresh-"+sid); err != nil {
			t.Fatalf("create %s: %v", sid, err)
		}
	}

	if err := repo.DeleteAllForUser(ctx, userID); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	for _, sid := range []string{"a", "b"} {
		if _, err := repo.GetSession(ctx, sid); !errors.Is(err, authsvc.ErrSessionNotFound) {
			t.Fatalf("unexpected session %s error: got %v want %v", sid, err, authsvc.ErrSessionNotFound)
		}
		if _, err := repo.GetByRefreshToken(ctx, "refresh-"+sid); !errors.Is(err, authsvc.ErrRefreshNotFound) {
			t.Fatalf("unexpected refresh %s error: got %v want %v", sid, err, authsvc.ErrRefreshNotFound)
		}
	}
}

func TestSessionRepoWithoutClient(t *testing.T) {
	repo := NewSessionRepo(nil)
	if _, err := repo.GetSession(context.Background(), "x"); err == nil {
		t.Fatalf("expected error without client")
	}
}
