package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCountersAreExported(t *testing.T) {
	reg := New()
	reg.InteractionRecorded("like", "match")
	reg.InteractionRecorded("like", "match")
	reg.MatchFormed("interaction", true)
	reg.ObserveHTTP("/interact", http.MethodPost, http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, name := range []string{
		`vibecheck_interactions_total{action="like",outcome="match"} 2`,
		"vibecheck_matches_formed_total",
		"vibecheck_http_request_duration_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output misses %s", name)
		}
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var reg *Registry
	reg.InteractionRecorded("like", "ok")
	reg.ChatRequest("send", "ok")
	reg.NotificationDelivered("kafka", "error")
	reg.ObserveHTTP("/", http.MethodGet, http.StatusOK, time.Millisecond)
}
