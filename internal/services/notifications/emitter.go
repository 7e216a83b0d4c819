package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vibecheck/backend/internal/domain/model"
)

const (
	defaultEmitTimeout = 3 * time.Second
	defaultQueueSize   = 256
)

type Store interface {
	Insert(ctx context.Context, n model.Notification) (uuid.UUID, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, payload any) error
}

type Metrics interface {
	NotificationDelivered(sink, outcome string)
}

type Dependencies struct {
	Store     Store
	Publisher Publisher
	Metrics   Metrics
	Logger    *zap.Logger
	// QueueSize bounds undelivered notifications; Emit drops when it is full.
	QueueSize int
}

// Emitter delivers notifications to the store and the broker from a background goroutine.
// Emit never blocks the caller; failures and drops are logged, never returned.
type Emitter struct {
	store     Store
	publisher Publisher
	metrics   Metrics
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	closed  bool
	queue   chan queued
	pending sync.WaitGroup
	done    chan struct{}
}

type queued struct {
	ctx context.Context
	n   model.Notification
}

type event struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewEmitter(deps Dependencies) *Emitter {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	size := deps.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	e := &Emitter{
		store:     deps.Store,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    logger,
		timeout:   defaultEmitTimeout,
		now:       time.Now,
		queue:     make(chan queued, size),
		done:      make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit queues n for delivery and returns immediately.
func (e *Emitter) Emit(ctx context.Context, n model.Notification) {
	if e == nil || n.UserID == uuid.Nil {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = e.now().UTC()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.logger.Warn("notification emitted after close", zap.String("type", string(n.Type)))
		return
	}

	e.pending.Add(1)
	select {
	case e.queue <- queued{ctx: context.WithoutCancel(ctx), n: n}:
	default:
		e.pending.Done()
		e.logger.Warn("notification queue full, dropped",
			zap.String("user_id", n.UserID.String()),
			zap.String("type", string(n.Type)),
		)
		e.observe("queue", "dropped")
	}
}

// Flush waits until every queued notification has been attempted or ctx is done.
func (e *Emitter) Flush(ctx context.Context) error {
	if e == nil {
		return nil
	}
	drained := make(chan struct{})
	go func() {
		e.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting notifications and waits for the queue to drain or ctx to end.
func (e *Emitter) Close(ctx context.Context) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Emitter) run() {
	defer close(e.done)
	for item := range e.queue {
		e.deliver(item.ctx, item.n)
		e.pending.Done()
	}
}

func (e *Emitter) deliver(parent context.Context, n model.Notification) {
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	fields := []zap.Field{
		zap.String("user_id", n.UserID.String()),
		zap.String("type", string(n.Type)),
	}

	if e.store != nil {
		id, err := e.store.Insert(ctx, n)
		if err != nil {
			e.logger.Warn("store notification failed", append(fields, zap.Error(err))...)
			e.observe("postgres", "error")
		} else {
			n.ID = id
			e.observe("postgres", "ok")
		}
	}

	if e.publisher != nil {
		err := e.publisher.PublishJSON(ctx, n.UserID.String(), event{
			ID:        n.ID,
			UserID:    n.UserID,
			Type:      string(n.Type),
			Title:     n.Title,
			Body:      n.Body,
			Data:      n.Data,
			CreatedAt: n.CreatedAt,
		})
		if err != nil {
			e.logger.Warn("publish notification failed", append(fields, zap.Error(err))...)
			e.observe("kafka", "error")
		} else {
			e.observe("kafka", "ok")
		}
	}
}

func (e *Emitter) observe(sink, outcome string) {
	if e.metrics != nil {
		e.metrics.NotificationDelivered(sink, outcome)
	}
}
