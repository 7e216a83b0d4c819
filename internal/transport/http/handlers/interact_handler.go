package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	interactionsvc "github.com/vibecheck/backend/internal/services/interactions"
	ratesvc "github.com/vibecheck/backend/internal/services/rate"
	"github.com/vibecheck/backend/internal/transport/http/dto"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
)

type InteractHandler struct {
	service *interactionsvc.Service
	log     *zap.Logger
}

func NewInteractHandler(service *interactionsvc.Service, log *zap.Logger) *InteractHandler {
	return &InteractHandler{service: service, log: orNop(log)}
}

func (h *InteractHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "interaction service is unavailable")
		return
	}

	var req dto.InteractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}
	action, err := interactionsvc.ParseAction(req.Action)
	if err != nil || req.ToUserID == uuid.Nil {
		writeBadRequest(w, httperrors.CodeValidation, "to_user_id and action (like|pass) are required")
		return
	}

	result, err := h.service.Record(r.Context(), identity.UserID, req.ToUserID, action)
	if err != nil {
		switch {
		case errors.Is(err, interactionsvc.ErrValidation):
			writeBadRequest(w, httperrors.CodeValidation, "invalid interaction request")
		case errors.Is(err, interactionsvc.ErrTargetNotFound):
			writeBadRequest(w, httperrors.CodeValidation, "target user does not exist")
		case errors.Is(err, interactionsvc.ErrDuplicateInteraction):
			writeConflict(w, httperrors.CodeDuplicateInteraction, "interaction already recorded")
		default:
			if tf, ok := ratesvc.IsTooFast(err); ok {
				writeTooFast(w, tf.RetryAfter(), "too many interactions, slow down")
				return
			}
			writeFailure(w, r, h.log, "failed to record interaction", err)
		}
		return
	}

	resp := dto.InteractResponse{OK: true, IsMatch: result.IsMatch}
	if result.IsMatch {
		resp.MatchID = &result.MatchID
	}
	httperrors.Write(w, http.StatusOK, resp)
}
