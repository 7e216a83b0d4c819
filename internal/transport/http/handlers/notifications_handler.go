package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	notificationsvc "github.com/vibecheck/backend/internal/services/notifications"
	"github.com/vibecheck/backend/internal/transport/http/dto"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
)

type NotificationsHandler struct {
	inbox *notificationsvc.Inbox
	log   *zap.Logger
}

func NewNotificationsHandler(inbox *notificationsvc.Inbox, log *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{inbox: inbox, log: orNop(log)}
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.inbox == nil {
		writeUnavailable(w, "notifications are unavailable")
		return
	}

	items, err := h.inbox.List(r.Context(), identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 50))
	if err != nil {
		h.handleError(w, r, "failed to load notifications", err)
		return
	}

	responseItems := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		responseItems = append(responseItems, dto.NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Body:      n.Body,
			Data:      n.Data,
			IsRead:    n.ReadAt != nil,
			CreatedAt: n.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.NotificationsResponse{Items: responseItems})
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.inbox == nil {
		writeUnavailable(w, "notifications are unavailable")
		return
	}
	notificationID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, httperrors.CodeValidation, "invalid notification id")
		return
	}

	if err := h.inbox.MarkRead(r.Context(), identity.UserID, notificationID); err != nil {
		h.handleError(w, r, "failed to mark notification read", err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.inbox == nil {
		writeUnavailable(w, "notifications are unavailable")
		return
	}

	updated, err := h.inbox.MarkAllRead(r.Context(), identity.UserID)
	if err != nil {
		h.handleError(w, r, "failed to mark notifications read", err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MarkAllReadResponse{OK: true, Updated: updated})
}

func (h *NotificationsHandler) handleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, notificationsvc.ErrValidation):
		writeBadRequest(w, httperrors.CodeValidation, "invalid notifications request")
	case errors.Is(err, notificationsvc.ErrNotificationNotFound):
		writeNotFound(w, httperrors.CodeNotificationNotFound, "notification not found")
	default:
		writeFailure(w, r, h.log, message, err)
	}
}
