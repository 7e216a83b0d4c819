package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/vibecheck/backend/internal/config"
	kafkainfra "github.com/vibecheck/backend/internal/infra/kafka"
	"github.com/vibecheck/backend/internal/infra/metrics"
	"github.com/vibecheck/backend/internal/infra/tracing"
	pgrepo "github.com/vibecheck/backend/internal/repo/postgres"
	redrepo "github.com/vibecheck/backend/internal/repo/redis"
	authsvc "github.com/vibecheck/backend/internal/services/auth"
	chatsvc "github.com/vibecheck/backend/internal/services/chat"
	interactionsvc "github.com/vibecheck/backend/internal/services/interactions"
	matchessvc "github.com/vibecheck/backend/internal/services/matches"
	notificationsvc "github.com/vibecheck/backend/internal/services/notifications"
	ratesvc "github.com/vibecheck/backend/internal/services/rate"
	requestsvc "github.com/vibecheck/backend/internal/services/requests"
	usersvc "github.com/vibecheck/backend/internal/services/users"
	"github.com/vibecheck/backend/internal/transport/http/handlers"
)

type App struct {
	cfg             config.Config
	logger          *zap.Logger
	server          *http.Server
	postgres        *pgxpool.Pool
	redis           *goredis.Client
	kafka           *kafkainfra.Publisher
	emitter         *notificationsvc.Emitter
	tracingShutdown tracing.ShutdownFunc
	httpHandler     http.Handler
}

// New wires the API. Missing or unreachable Postgres, Redis and Kafka degrade the
// app instead of failing it: the affected routes answer 500 and /healthz says why.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	tracingShutdown, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Env,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		log.Warn("tracing init failed, continuing without export", zap.Error(err))
		tracingShutdown = func(context.Context) error { return nil }
	}

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.New()
	}

	r := chi.NewRouter()
	var httpMetrics HTTPMetrics
	if registry != nil {
		httpMetrics = registry
	}
	ApplyMiddlewares(r, log, httpMetrics, cfg.HTTP.RequestTimeout)

	var pool *pgxpool.Pool
	if cfg.Postgres.DSN == "" {
		log.Warn("postgres dsn is empty, continuing in degraded mode")
	} else if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
		if cfg.Postgres.AutoMigrate {
			if err := pgrepo.Migrate(ctx, pool); err != nil {
				log.Warn("schema migration failed", zap.Error(err))
			}
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	redisClient, err := redrepo.NewClient(pingCtx, redrepo.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cancel()
	if err != nil {
		log.Warn("redis init failed, continuing in degraded mode", zap.Error(err))
	}

	var (
		publisher       *kafkainfra.Publisher
		notifyPublisher notificationsvc.Publisher
	)
	if cfg.Kafka.Enabled() {
		p, err := kafkainfra.NewPublisher(kafkainfra.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.NotificationsTopic,
			ClientID:     cfg.Kafka.ClientID,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		if err != nil {
			log.Warn("kafka publisher init failed, notifications stay local", zap.Error(err))
		} else {
			publisher = p
			notifyPublisher = p
		}
	}

	tx := pgrepo.NewTxManager(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	interactionRepo := pgrepo.NewInteractionRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	requestRepo := pgrepo.NewChatRequestRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)

	var (
		notificationStore notificationsvc.Store
		inbox             *notificationsvc.Inbox
	)
	if pool != nil {
		notificationRepo := pgrepo.NewNotificationRepo(pool)
		notificationStore = notificationRepo
		inbox = notificationsvc.NewInbox(notificationRepo)
	}
	emitter := notificationsvc.NewEmitter(notificationsvc.Dependencies{
		Store:     notificationStore,
		Publisher: notifyPublisher,
		Metrics:   registry,
		Logger:    log,
	})

	var (
		sessionStore authsvc.SessionStore
		limiter      *ratesvc.Limiter
	)
	if redisClient != nil {
		sessionStore = redrepo.NewSessionRepo(redisClient)
		limiter = ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), map[ratesvc.Action]ratesvc.Policy{
			ratesvc.ActionInteract:    {PerMinute: cfg.Rate.Interact.PerMinute, Per10Sec: cfg.Rate.Interact.Per10Sec},
			ratesvc.ActionChatRequest: {PerMinute: cfg.Rate.ChatRequest.PerMinute, Per10Sec: cfg.Rate.ChatRequest.Per10Sec},
		})
	} else {
		sessionStore = redrepo.NewSessionRepo(nil)
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionStore, userRepo, cfg.Auth.RefreshTTL)
	userService := usersvc.NewService(userRepo)
	matchService := matchessvc.NewService(matchessvc.Dependencies{
		Tx:         tx,
		MatchStore: matchRepo,
		Notifier:   emitter,
		Metrics:    registry,
	})

	interactionDeps := interactionsvc.Dependencies{
		Tx:               tx,
		InteractionStore: interactionRepo,
		Matches:          matchService,
		Metrics:          registry,
	}
	requestDeps := requestsvc.Dependencies{
		Tx:           tx,
		RequestStore: requestRepo,
		Users:        userService,
		Matches:      matchService,
		Notifier:     emitter,
		Metrics:      registry,
	}
	if limiter != nil {
		interactionDeps.RateLimiter = limiter
		requestDeps.RateLimiter = limiter
	}
	interactionService := interactionsvc.NewService(interactionDeps)
	requestService := requestsvc.NewService(requestDeps, requestsvc.Config{
		RequestTTL:       cfg.Matching.RequestTTL,
		OutboundLookback: cfg.Matching.OutboundLookback,
	})
	chatService := chatsvc.NewService(chatsvc.Dependencies{
		Messages: messageRepo,
		Matches:  matchService,
		Notifier: emitter,
	})

	checks := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pool != nil {
		checks["postgres"] = pool
	}
	if redisClient != nil {
		checks["redis"] = redisPinger{client: redisClient}
	}

	var metricsHandler http.Handler
	if registry != nil {
		metricsHandler = registry.Handler()
	}

	RegisterRoutes(r, Dependencies{
		AuthService:        authService,
		UserService:        userService,
		InteractionService: interactionService,
		MatchService:       matchService,
		RequestService:     requestService,
		ChatService:        chatService,
		NotificationInbox:  inbox,
		HealthChecks:       checks,
		MetricsHandler:     metricsHandler,
		MetricsPath:        cfg.Metrics.Path,
		Logger:             log,
	})

	handler := otelhttp.NewHandler(r, "vibecheck-api",
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/healthz" && req.URL.Path != cfg.Metrics.Path
		}),
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:             cfg,
		logger:          log,
		server:          server,
		postgres:        pool,
		redis:           redisClient,
		kafka:           publisher,
		emitter:         emitter,
		tracingShutdown: tracingShutdown,
		httpHandler:     handler,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	// Drain queued notifications while the store and broker are still open.
	if err := a.emitter.Close(ctx); err != nil && shutdownErr == nil {
		shutdownErr = err
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(ctx); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpHandler
}

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
