package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionInteract    Action = "interact"
	ActionChatRequest Action = "chat_request"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Policy caps actions per fixed window. Zero disables a window.
type Policy struct {
	PerMinute int
	Per10Sec  int
}

type Limiter struct {
	store    WindowStore
	policies map[Action]Policy
}

func NewLimiter(store WindowStore, policies map[Action]Policy) *Limiter {
	normalized := make(map[Action]Policy, len(policies))
	for action, p := range policies {
		normalized[action] = Policy{
			PerMinute: max(p.PerMinute, 0),
			Per10Sec:  max(p.Per10Sec, 0),
		}
	}

	return &Limiter{
		store:    store,
		policies: normalized,
	}
}

// Allow counts one attempt and returns retry-after seconds when any window is exceeded.
// Actions without a policy are always allowed.
func (l *Limiter) Allow(ctx context.Context, action Action, userID uuid.UUID) (int64, bool, error) {
	if userID == uuid.Nil {
		return 0, false, fmt.Errorf("invalid user id")
	}
	policy, ok := l.policies[action]
	if !ok {
		return 0, true, nil
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range policy.windows() {
		count, ttl, err := l.store.IncrementWindow(ctx, windowKey(action, w.suffix, userID), w.size)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

// RetryAfter reports how long the user must wait without counting an attempt.
func (l *Limiter) RetryAfter(ctx context.Context, action Action, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("invalid user id")
	}
	policy, ok := l.policies[action]
	if !ok {
		return 0, nil
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range policy.windows() {
		count, ttl, err := l.store.WindowState(ctx, windowKey(action, w.suffix, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

type window struct {
	suffix string
	size   time.Duration
	limit  int
}

func (p Policy) windows() []window {
	out := make([]window, 0, 2)
	if p.PerMinute > 0 {
		out = append(out, window{suffix: "min", size: minuteWindow, limit: p.PerMinute})
	}
	if p.Per10Sec > 0 {
		out = append(out, window{suffix: "10s", size: tenSecWindow, limit: p.Per10Sec})
	}
	return out
}

func windowKey(action Action, suffix string, userID uuid.UUID) string {
	return "rate:" + string(action) + ":" + suffix + ":" + userID.String()
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return max(sec, 1)
}
