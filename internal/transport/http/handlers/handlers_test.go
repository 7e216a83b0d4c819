package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/repo/memory"
	redrepo "github.com/vibecheck/backend/internal/repo/redis"
	authsvc "github.com/vibecheck/backend/internal/services/auth"
	chatsvc "github.com/vibecheck/backend/internal/services/chat"
	interactionsvc "github.com/vibecheck/backend/internal/services/interactions"
	matchessvc "github.com/vibecheck/backend/internal/services/matches"
	notificationsvc "github.com/vibecheck/backend/internal/services/notifications"
	ratesvc "github.com/vibecheck/backend/internal/services/rate"
	requestsvc "github.com/vibecheck/backend/internal/services/requests"
	usersvc "github.com/vibecheck/backend/internal/services/users"
)

type testEnv struct {
	db            *memory.DB
	router        chi.Router
	requests      *requestsvc.Service
	notifications *memory.Notifications
	emitter       *notificationsvc.Emitter
}

func newTestEnv(t *testing.T, limiter *ratesvc.Limiter) testEnv {
	t.Helper()

	db := memory.NewDB()
	notificationStore := memory.NewNotifications()
	emitter := notificationsvc.NewEmitter(notificationsvc.Dependencies{Store: notificationStore})
	users := usersvc.NewService(memory.NewUsers(db))
	matches := matchessvc.NewService(matchessvc.Dependencies{Tx: db, MatchStore: memory.NewMatches(db), Notifier: emitter})

	interactionDeps := interactionsvc.Dependencies{
		Tx:               db,
		InteractionStore: memory.NewInteractions(db),
		Matches:          matches,
	}
	requestDeps := requestsvc.Dependencies{
		Tx:           db,
		RequestStore: memory.NewChatRequests(db),
		Users:        users,
		Matches:      matches,
		Notifier:     emitter,
	}
	if limiter != nil {
		interactionDeps.RateLimiter = limiter
		requestDeps.RateLimiter = limiter
	}
	requests := requestsvc.NewService(requestDeps, requestsvc.Config{})
	chat := chatsvc.NewService(chatsvc.Dependencies{Messages: memory.NewMessages(db), Matches: matches})

	interact := NewInteractHandler(interactionsvc.NewService(interactionDeps), nil)
	matchesHandler := NewMatchesHandler(matches, nil)
	requestsHandler := NewRequestsHandler(requests, nil)
	chatHandler := NewChatHandler(chat, nil)
	me := NewMeHandler(users, nil)
	notificationsHandler := NewNotificationsHandler(notificationsvc.NewInbox(notificationStore), nil)

	r := chi.NewRouter()
	r.Post("/interact", interact.Handle)
	r.Get("/matches", matchesHandler.Handle)
	r.Post("/requests", requestsHandler.Send)
	r.Get("/requests", requestsHandler.ListInbound)
	r.Get("/requests/sent", requestsHandler.ListOutbound)
	r.Post("/requests/{id}/accept", requestsHandler.Accept)
	r.Post("/requests/{id}/reject", requestsHandler.Reject)
	r.Get("/chat/{matchId}", chatHandler.History)
	r.Post("/chat/{matchId}", chatHandler.Send)
	r.Get("/me", me.Handle)
	r.Post("/me/live", me.GoLive)
	r.Delete("/me/live", me.GoOffline)
	r.Get("/notifications", notificationsHandler.List)
	r.Post("/notifications/read-all", notificationsHandler.MarkAllRead)
	r.Post("/notifications/{id}/read", notificationsHandler.MarkRead)

	return testEnv{db: db, router: r, requests: requests, notifications: notificationStore, emitter: emitter}
}

func (e testEnv) do(t *testing.T, method, path string, as uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if as != uuid.Nil {
		req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
			UserID: as,
			SID:    "sid-" + as.String(),
			Role:   "user",
		}))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	decodeBody(t, rr, &payload)
	return payload.Code
}

func TestInteractMutualLikeAndDuplicate(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.db.AddUser(model.User{Name: "Ana", Photos: []string{"a.jpg"}})
	b := env.db.AddUser(model.User{Name: "Ben"})

	rr := env.do(t, http.MethodPost, "/interact", a.ID, map[string]any{"to_user_id": b.ID, "action": "like"})
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var first struct {
		OK      bool `json:"ok"`
		IsMatch bool `json:"is_match"`
	}
	decodeBody(t, rr, &first)
	if !first.OK || first.IsMatch {
		t.Fatalf("unexpected first response: %+v", first)
	}

	rr = env.do(t, http.MethodPost, "/interact", b.ID, map[string]any{"to_user_id": a.ID, "action": "like"})
	var second struct {
		IsMatch bool      `json:"is_match"`
		MatchID uuid.UUID `json:"match_id"`
	}
	decodeBody(t, rr, &second)
	if !second.IsMatch || second.MatchID == uuid.Nil {
		t.Fatalf("expected match, got %s", rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/interact", a.ID, map[string]any{"to_user_id": b.ID, "action": "pass"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected duplicate status: got %d want %d", rr.Code, http.StatusConflict)
	}
	if code := errorCode(t, rr); code != "DUPLICATE_INTERACTION" {
		t.Fatalf("unexpected error code: got %q want %q", code, "DUPLICATE_INTERACTION")
	}

	rr = env.do(t, http.MethodGet, "/matches", a.ID, nil)
	var list struct {
		Items []struct {
			MatchID uuid.UUID `json:"match_id"`
			User    struct {
				ID     uuid.UUID `json:"id"`
				Name   string    `json:"name"`
				Photos []string  `json:"photos"`
			} `json:"user"`
		} `json:"items"`
	}
	decodeBody(t, rr, &list)
	if len(list.Items) != 1 || list.Items[0].User.ID != b.ID || list.Items[0].MatchID != second.MatchID {
		t.Fatalf("unexpected matches: %s", rr.Body.String())
	}
	if list.Items[0].User.Photos == nil {
		t.Fatalf("photos must serialize as an array")
	}
}

func TestInteractValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.db.AddUser(model.User{Name: "Ana"})

	tests := []struct {
		name   string
		as     uuid.UUID
		body   any
		status int
		code   string
	}{
		{name: "unauthenticated", as: uuid.Nil, body: map[string]any{"to_user_id": uuid.New(), "action": "like"}, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "bad action", as: a.ID, body: map[string]any{"to_user_id": uuid.New(), "action": "superlike"}, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "malformed target", as: a.ID, body: `{"to_user_id":"nope","action":"like"}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "self", as: a.ID, body: map[string]any{"to_user_id": a.ID, "action": "like"}, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "unknown target", as: a.ID, body: map[string]any{"to_user_id": uuid.New(), "action": "like"}, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/interact", tc.as, tc.body)
			if rr.Code != tc.status {
				t.Fatalf("unexpected status: got %d want %d", rr.Code, tc.status)
			}
			if code := errorCode(t, rr); code != tc.code {
				t.Fatalf("unexpected error code: got %q want %q", code, tc.code)
			}
		})
	}
}

func TestInteractReturnsTooFast(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	limiter := ratesvc.NewLimiter(redrepo.NewRateRepo(client), map[ratesvc.Action]ratesvc.Policy{
		ratesvc.ActionInteract: {PerMinute: 30, Per10Sec: 2},
	})
	env := newTestEnv(t, limiter)
	a := env.db.AddUser(model.User{Name: "Ana"})

	for i := 0; i < 2; i++ {
		target := env.db.AddUser(model.User{Name: "T"})
		if rr := env.do(t, http.MethodPost, "/interact", a.ID, map[string]any{"to_user_id": target.ID, "action": "pass"}); rr.Code != http.StatusOK {
			t.Fatalf("unexpected status on pass %d: got %d want %d", i, rr.Code, http.StatusOK)
		}
	}

	target := env.db.AddUser(model.User{Name: "T"})
	rr := env.do(t, http.MethodPost, "/interact", a.ID, map[string]any{"to_user_id": target.ID, "action": "pass"})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status on third pass: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}
	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	decodeBody(t, rr, &payload)
	if payload.Code != "TOO_FAST" {
		t.Fatalf("unexpected error code: got %q want %q", payload.Code, "TOO_FAST")
	}
	if payload.RetryAfterSec <= 0 {
		t.Fatalf("expected positive retry_after_sec, got %d", payload.RetryAfterSec)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestChatRequestLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.db.AddUser(model.User{Name: "Ana"})
	b := env.db.AddUser(model.User{Name: "Ben"})

	rr := env.do(t, http.MethodPost, "/requests", a.ID, map[string]any{"to_user_id": b.ID, "message": "hi"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("offline target: got %d want %d", rr.Code, http.StatusConflict)
	}
	if code := errorCode(t, rr); code != "TARGET_UNAVAILABLE" {
		t.Fatalf("unexpected error code: got %q want %q", code, "TARGET_UNAVAILABLE")
	}

	if rr := env.do(t, http.MethodPost, "/me/live", b.ID, nil); rr.Code != http.StatusOK {
		t.Fatalf("go live: got %d want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/requests", a.ID, map[string]any{"to_user_id": b.ID, "message": "hi"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("send: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	var sent struct {
		Request struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"request"`
	}
	decodeBody(t, rr, &sent)
	if sent.Request.Status != "pending" {
		t.Fatalf("unexpected status: %q", sent.Request.Status)
	}

	rr = env.do(t, http.MethodGet, "/requests", b.ID, nil)
	var inbound struct {
		Items []struct {
			ID               uuid.UUID `json:"id"`
			MinutesRemaining int       `json:"minutes_remaining"`
			User             struct {
				ID uuid.UUID `json:"id"`
			} `json:"user"`
		} `json:"items"`
	}
	decodeBody(t, rr, &inbound)
	if len(inbound.Items) != 1 || inbound.Items[0].User.ID != a.ID || inbound.Items[0].MinutesRemaining != 60 {
		t.Fatalf("unexpected inbound: %s", rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/requests/sent", a.ID, nil)
	if !strings.Contains(rr.Body.String(), sent.Request.ID.String()) {
		t.Fatalf("outbound list misses the request: %s", rr.Body.String())
	}

	if rr := env.do(t, http.MethodPost, "/requests/not-a-uuid/accept", b.ID, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	if rr := env.do(t, http.MethodPost, "/requests/"+sent.Request.ID.String()+"/accept", a.ID, nil); rr.Code != http.StatusConflict {
		t.Fatalf("sender accepting: got %d want %d", rr.Code, http.StatusConflict)
	}

	rr = env.do(t, http.MethodPost, "/requests/"+sent.Request.ID.String()+"/accept", b.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("accept: got %d want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var accepted struct {
		OK      bool      `json:"ok"`
		MatchID uuid.UUID `json:"match_id"`
	}
	decodeBody(t, rr, &accepted)
	if !accepted.OK || accepted.MatchID == uuid.Nil {
		t.Fatalf("unexpected accept response: %s", rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/requests/"+sent.Request.ID.String()+"/reject", b.ID, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("reject after accept: got %d want %d", rr.Code, http.StatusConflict)
	}
	if code := errorCode(t, rr); code != "REQUEST_NOT_ACTIONABLE" {
		t.Fatalf("unexpected error code: got %q want %q", code, "REQUEST_NOT_ACTIONABLE")
	}

	if env.db.CountMatches() != 1 {
		t.Fatalf("unexpected match rows: got %d want 1", env.db.CountMatches())
	}
}

func TestChatOnMatch(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.db.AddUser(model.User{Name: "Ana"})
	b := env.db.AddUser(model.User{Name: "Ben"})
	stranger := env.db.AddUser(model.User{Name: "Cy"})

	env.do(t, http.MethodPost, "/interact", a.ID, map[string]any{"to_user_id": b.ID, "action": "like"})
	rr := env.do(t, http.MethodPost, "/interact", b.ID, map[string]any{"to_user_id": a.ID, "action": "like"})
	var matched struct {
		MatchID uuid.UUID `json:"match_id"`
	}
	decodeBody(t, rr, &matched)
	path := "/chat/" + matched.MatchID.String()

	if rr := env.do(t, http.MethodPost, path, a.ID, map[string]any{"content": "   "}); rr.Code != http.StatusBadRequest {
		t.Fatalf("blank content: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	if rr := env.do(t, http.MethodPost, path, stranger.ID, map[string]any{"content": "hey"}); rr.Code != http.StatusNotFound {
		t.Fatalf("stranger send: got %d want %d", rr.Code, http.StatusNotFound)
	}
	if rr := env.do(t, http.MethodGet, "/chat/"+uuid.NewString(), a.ID, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown match: got %d want %d", rr.Code, http.StatusNotFound)
	}

	rr = env.do(t, http.MethodPost, path, a.ID, map[string]any{"content": " hello "})
	if rr.Code != http.StatusCreated {
		t.Fatalf("send: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, path, b.ID, nil)
	var history struct {
		Items []struct {
			Content string `json:"content"`
			IsMine  bool   `json:"is_mine"`
		} `json:"items"`
	}
	decodeBody(t, rr, &history)
	if len(history.Items) != 1 || history.Items[0].Content != "hello" || history.Items[0].IsMine {
		t.Fatalf("unexpected history: %s", rr.Body.String())
	}
}

func TestLiveToggle(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.db.AddUser(model.User{Name: "Ana"})

	if rr := env.do(t, http.MethodPost, "/me/live", a.ID, map[string]any{"minutes": 500}); rr.Code != http.StatusBadRequest {
		t.Fatalf("out of range minutes: got %d want %d", rr.Code, http.StatusBadRequest)
	}

	rr := env.do(t, http.MethodPost, "/me/live", a.ID, map[string]any{"minutes": 30})
	var live struct {
		IsLive    bool       `json:"is_live"`
		LiveUntil *time.Time `json:"live_until"`
	}
	decodeBody(t, rr, &live)
	if !live.IsLive || live.LiveUntil == nil {
		t.Fatalf("unexpected live response: %s", rr.Body.String())
	}

	rr = env.do(t, http.MethodDelete, "/me/live", a.ID, nil)
	decodeBody(t, rr, &live)
	if live.IsLive || live.LiveUntil != nil {
		t.Fatalf("unexpected offline response: %s", rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/me", a.ID, nil)
	var me struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	decodeBody(t, rr, &me)
	if me.ID != a.ID || me.Name != "Ana" {
		t.Fatalf("unexpected me: %s", rr.Body.String())
	}
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error {
	return p.err
}

func TestHealthReportsDependencies(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"postgres": pingerStub{},
		"redis":    nil,
	})

	rr := httptest.NewRecorder()
	h.Handle(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var payload struct {
		Status string            `json:"status"`
		Deps   map[string]string `json:"deps"`
	}
	decodeBody(t, rr, &payload)
	if payload.Status != "ok" || payload.Deps["redis"] != "disabled" || payload.Deps["postgres"] != "ok" {
		t.Fatalf("unexpected health payload: %s", rr.Body.String())
	}

	down := NewHealthHandler(map[string]Pinger{"postgres": pingerStub{err: context.DeadlineExceeded}})
	rr = httptest.NewRecorder()
	down.Handle(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestNotificationsInbox(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.db.AddUser(model.User{Name: "Ana"})
	b := env.db.AddUser(model.User{Name: "Ben"})

	for _, step := range []struct{ from, to uuid.UUID }{{a.ID, b.ID}, {b.ID, a.ID}} {
		rr := env.do(t, http.MethodPost, "/interact", step.from, map[string]any{"to_user_id": step.to, "action": "like"})
		if rr.Code != http.StatusOK {
			t.Fatalf("unexpected interact status: got %d want %d", rr.Code, http.StatusOK)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := env.emitter.Flush(ctx); err != nil {
		t.Fatalf("flush notifications: %v", err)
	}

	rr := env.do(t, http.MethodGet, "/notifications", a.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected list status: got %d want %d", rr.Code, http.StatusOK)
	}
	var inbox struct {
		Items []struct {
			ID     uuid.UUID `json:"id"`
			Type   string    `json:"type"`
			IsRead bool      `json:"is_read"`
		} `json:"items"`
	}
	decodeBody(t, rr, &inbox)
	if len(inbox.Items) != 1 || inbox.Items[0].Type != "match" || inbox.Items[0].IsRead {
		t.Fatalf("unexpected inbox: %+v", inbox.Items)
	}

	rr = env.do(t, http.MethodPost, "/notifications/"+inbox.Items[0].ID.String()+"/read", b.ID, nil)
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "NOTIFICATION_NOT_FOUND" {
		t.Fatalf("foreign read should be not found: got %d %s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodPost, "/notifications/not-a-uuid/read", a.ID, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected malformed id status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	rr = env.do(t, http.MethodPost, "/notifications/"+inbox.Items[0].ID.String()+"/read", a.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected read status: got %d want %d", rr.Code, http.StatusOK)
	}

	rr = env.do(t, http.MethodPost, "/notifications/read-all", b.ID, nil)
	var all struct {
		Updated int64 `json:"updated"`
	}
	decodeBody(t, rr, &all)
	if rr.Code != http.StatusOK || all.Updated != 1 {
		t.Fatalf("unexpected read-all result: got %d updated=%d", rr.Code, all.Updated)
	}
}
