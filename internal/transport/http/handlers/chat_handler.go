package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vibecheck/backend/internal/domain/model"
	chatsvc "github.com/vibecheck/backend/internal/services/chat"
	"github.com/vibecheck/backend/internal/transport/http/dto"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
)

type ChatHandler struct {
	service *chatsvc.Service
	log     *zap.Logger
}

func NewChatHandler(service *chatsvc.Service, log *zap.Logger) *ChatHandler {
	return &ChatHandler{service: service, log: orNop(log)}
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "chat service is unavailable")
		return
	}
	matchID, ok := uuidParam(r, "matchId")
	if !ok {
		writeNotFound(w, httperrors.CodeMatchNotFound, "match not found")
		return
	}

	items, err := h.service.History(r.Context(), identity.UserID, matchID)
	if err != nil {
		h.handleError(w, r, "failed to load messages", err)
		return
	}

	responseItems := make([]dto.MessageResponse, 0, len(items))
	for _, msg := range items {
		responseItems = append(responseItems, toMessageResponse(msg, identity.UserID == msg.SenderID))
	}

	httperrors.Write(w, http.StatusOK, dto.MessagesResponse{Items: responseItems})
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "chat service is unavailable")
		return
	}
	matchID, ok := uuidParam(r, "matchId")
	if !ok {
		writeNotFound(w, httperrors.CodeMatchNotFound, "match not found")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}

	msg, err := h.service.Send(r.Context(), identity.UserID, matchID, req.Content)
	if err != nil {
		h.handleError(w, r, "failed to send message", err)
		return
	}

	httperrors.Write(w, http.StatusCreated, toMessageResponse(msg, true))
}

func (h *ChatHandler) handleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, chatsvc.ErrValidation):
		writeBadRequest(w, httperrors.CodeValidation, "message content is required")
	case errors.Is(err, chatsvc.ErrMatchNotFound):
		writeNotFound(w, httperrors.CodeMatchNotFound, "match not found")
	default:
		writeFailure(w, r, h.log, message, err)
	}
}

func toMessageResponse(msg model.Message, mine bool) dto.MessageResponse {
	return dto.MessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
		ViewedAt:   msg.ViewedAt,
		IsMine:     mine,
	}
}
