package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vibecheck/backend/internal/domain/model"
	ratesvc "github.com/vibecheck/backend/internal/services/rate"
	requestsvc "github.com/vibecheck/backend/internal/services/requests"
	"github.com/vibecheck/backend/internal/transport/http/dto"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
)

type RequestsHandler struct {
	service *requestsvc.Service
	log     *zap.Logger
}

func NewRequestsHandler(service *requestsvc.Service, log *zap.Logger) *RequestsHandler {
	return &RequestsHandler{service: service, log: orNop(log)}
}

func (h *RequestsHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "chat request service is unavailable")
		return
	}

	var req dto.SendChatRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}
	if req.ToUserID == uuid.Nil {
		writeBadRequest(w, httperrors.CodeValidation, "to_user_id is required")
		return
	}

	created, err := h.service.Send(r.Context(), identity.UserID, req.ToUserID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, requestsvc.ErrValidation):
			writeBadRequest(w, httperrors.CodeValidation, "invalid chat request")
		case errors.Is(err, requestsvc.ErrTargetUnavailable):
			writeConflict(w, httperrors.CodeTargetUnavailable, "user is not available for chat requests")
		default:
			if tf, ok := ratesvc.IsTooFast(err); ok {
				writeTooFast(w, tf.RetryAfter(), "too many chat requests, slow down")
				return
			}
			writeFailure(w, r, h.log, "failed to send chat request", err)
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.SendChatRequestResponse{Request: toChatRequestResponse(created)})
}

func (h *RequestsHandler) ListInbound(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *RequestsHandler) ListOutbound(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *RequestsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "chat request service is unavailable")
		return
	}
	requestID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request id")
		return
	}

	matchID, err := h.service.Accept(r.Context(), identity.UserID, requestID)
	if err != nil {
		h.handleRespondError(w, r, "failed to accept chat request", err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AcceptChatRequestResponse{OK: true, MatchID: matchID})
}

func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "chat request service is unavailable")
		return
	}
	requestID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request id")
		return
	}

	if err := h.service.Reject(r.Context(), identity.UserID, requestID); err != nil {
		h.handleRespondError(w, r, "failed to reject chat request", err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *RequestsHandler) list(w http.ResponseWriter, r *http.Request, outbound bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "chat request service is unavailable")
		return
	}

	load := h.service.ListInbound
	if outbound {
		load = h.service.ListOutbound
	}
	items, err := load(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, requestsvc.ErrValidation):
			writeBadRequest(w, httperrors.CodeValidation, "invalid request")
		default:
			writeFailure(w, r, h.log, "failed to load chat requests", err)
		}
		return
	}

	responseItems := make([]dto.ChatRequestItemResponse, 0, len(items))
	for _, item := range items {
		responseItems = append(responseItems, dto.ChatRequestItemResponse{
			ChatRequestResponse: toChatRequestResponse(item.Request),
			User:                toUserSummary(item.User),
			MinutesRemaining:    item.MinutesRemaining,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.ChatRequestsResponse{Items: responseItems})
}

func (h *RequestsHandler) handleRespondError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, requestsvc.ErrValidation):
		writeBadRequest(w, httperrors.CodeValidation, "invalid request id")
	case errors.Is(err, requestsvc.ErrRequestNotActionable):
		writeConflict(w, httperrors.CodeRequestNotActionable, "request not found, already handled, or expired")
	default:
		writeFailure(w, r, h.log, message, err)
	}
}

func toChatRequestResponse(req model.ChatRequest) dto.ChatRequestResponse {
	return dto.ChatRequestResponse{
		ID:          req.ID,
		FromUserID:  req.FromUserID,
		ToUserID:    req.ToUserID,
		Message:     req.Message,
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt,
		ExpiresAt:   req.ExpiresAt,
		RespondedAt: req.RespondedAt,
	}
}
