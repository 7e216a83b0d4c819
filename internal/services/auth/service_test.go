package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vibecheck/backend/internal/repo/memory"
	redrepo "github.com/vibecheck/backend/internal/repo/redis"
	authsvc "github.com/vibecheck/backend/internal/services/auth"
)

func TestLoginCreatesThenFindsUser(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	first, err := svc.Login(ctx, authsvc.LoginInput{Email: " Ana@Example.com ", Password: "secret-1"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if !first.Me.Created {
		t.Fatalf("first login should create the user")
	}

	second, err := svc.Login(ctx, authsvc.LoginInput{Email: "ana@example.com", Password: "secret-1"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.Me.Created {
		t.Fatalf("second login should not create a user")
	}
	if second.Me.ID != first.Me.ID {
		t.Fatalf("unexpected user id: got %s want %s", second.Me.ID, first.Me.ID)
	}

	if _, err := svc.Login(ctx, authsvc.LoginInput{Email: "ana@example.com", Password: "wrong"}); !errors.Is(err, authsvc.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRequiresContact(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	if _, err := svc.Login(context.Background(), authsvc.LoginInput{Password: "x"}); !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes, err := svc.Login(ctx, authsvc.LoginInput{Phone: "+15550001001"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshRes, err := svc.Refresh(ctx, loginRes.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if refreshRes.RefreshToken == loginRes.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}
	if refreshRes.Me.ID != loginRes.Me.ID {
		t.Fatalf("unexpected user after refresh: got %s want %s", refreshRes.Me.ID, loginRes.Me.ID)
	}

	if _, err := svc.Refresh(ctx, loginRes.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("old refresh token should be unauthorized, got err=%v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, refreshRes.AccessToken); err != nil {
		t.Fatalf("new access token validation failed: %v", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes, err := svc.Login(ctx, authsvc.LoginInput{Phone: "+15550002002"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken)
	if err != nil {
		t.Fatalf("validate access token before logout: %v", err)
	}
	if claims.UserID != loginRes.Me.ID {
		t.Fatalf("unexpected claims user: got %s want %s", claims.UserID, loginRes.Me.ID)
	}

	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("access token should be unauthorized after logout, got err=%v", err)
	}
}

func TestLogoutAllInvalidatesEverySession(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	first, err := svc.Login(ctx, authsvc.LoginInput{Phone: "+15550003003"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(ctx, authsvc.LoginInput{Phone: "+15550003003"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := svc.LogoutAll(ctx, first.Me.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	for _, token := range []string{first.AccessToken, second.AccessToken} {
		if _, err := svc.ValidateAccessToken(ctx, token); !errors.Is(err, authsvc.ErrUnauthorized) {
			t.Fatalf("access token should be unauthorized after logout all, got err=%v", err)
		}
	}
}

func newAuthServiceForTest(t *testing.T) (*authsvc.Service, func()) {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	repo := redrepo.NewSessionRepo(client)
	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	svc := authsvc.NewService(jwtManager, repo, memory.NewUsers(memory.NewDB()), 45*24*time.Hour)

	cleanup := func() {
		_ = client.Close()
		mini.Close()
	}

	return svc, cleanup
}
