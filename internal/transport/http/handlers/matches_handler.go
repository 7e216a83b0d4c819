package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	matchessvc "github.com/vibecheck/backend/internal/services/matches"
	"github.com/vibecheck/backend/internal/transport/http/dto"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchessvc.Service
	log     *zap.Logger
}

func NewMatchesHandler(service *matchessvc.Service, log *zap.Logger) *MatchesHandler {
	return &MatchesHandler{service: service, log: orNop(log)}
}

func (h *MatchesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "matches service is unavailable")
		return
	}

	items, err := h.service.List(r.Context(), identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 100))
	if err != nil {
		switch {
		case errors.Is(err, matchessvc.ErrValidation):
			writeBadRequest(w, httperrors.CodeValidation, "invalid matches request")
		default:
			writeFailure(w, r, h.log, "failed to load matches", err)
		}
		return
	}

	responseItems := make([]dto.MatchItemResponse, 0, len(items))
	for _, item := range items {
		responseItems = append(responseItems, dto.MatchItemResponse{
			MatchID:   item.MatchID,
			MatchedAt: item.MatchedAt,
			User:      toUserSummary(item.User),
		})
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Items: responseItems})
}
