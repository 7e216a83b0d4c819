package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/vibecheck/backend/internal/services/auth"
	chatsvc "github.com/vibecheck/backend/internal/services/chat"
	interactionsvc "github.com/vibecheck/backend/internal/services/interactions"
	matchessvc "github.com/vibecheck/backend/internal/services/matches"
	notificationsvc "github.com/vibecheck/backend/internal/services/notifications"
	requestsvc "github.com/vibecheck/backend/internal/services/requests"
	usersvc "github.com/vibecheck/backend/internal/services/users"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
	"github.com/vibecheck/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService        *authsvc.Service
	UserService        *usersvc.Service
	InteractionService *interactionsvc.Service
	MatchService       *matchessvc.Service
	RequestService     *requestsvc.Service
	ChatService        *chatsvc.Service
	NotificationInbox  *notificationsvc.Inbox
	HealthChecks       map[string]handlers.Pinger
	MetricsHandler     http.Handler
	MetricsPath        string
	Logger             *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	meHandler := handlers.NewMeHandler(deps.UserService, deps.Logger)
	interactHandler := handlers.NewInteractHandler(deps.InteractionService, deps.Logger)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService, deps.Logger)
	requestsHandler := handlers.NewRequestsHandler(deps.RequestService, deps.Logger)
	chatHandler := handlers.NewChatHandler(deps.ChatService, deps.Logger)
	notificationsHandler := handlers.NewNotificationsHandler(deps.NotificationInbox, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Handle)
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, deps.MetricsHandler)
	}

	api := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Get("/me", meHandler.Handle)
			r.Post("/me/live", meHandler.GoLive)
			r.Delete("/me/live", meHandler.GoOffline)

			r.Post("/interact", interactHandler.Handle)
			r.Get("/matches", matchesHandler.Handle)

			r.Post("/requests", requestsHandler.Send)
			r.Get("/requests", requestsHandler.ListInbound)
			r.Get("/requests/sent", requestsHandler.ListOutbound)
			r.Post("/requests/{id}/accept", requestsHandler.Accept)
			r.Post("/requests/{id}/reject", requestsHandler.Reject)

			r.Get("/chat/{matchId}", chatHandler.History)
			r.Post("/chat/{matchId}", chatHandler.Send)

			r.Get("/notifications", notificationsHandler.List)
			r.Post("/notifications/read-all", notificationsHandler.MarkAllRead)
			r.Post("/notifications/{id}/read", notificationsHandler.MarkRead)
		})
	}

	api(r)
	r.Route("/v1", api)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
			Code:    httperrors.CodeNotFound,
			Message: "route not found",
		})
	})
}
