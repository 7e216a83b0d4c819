package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vibecheck/backend/internal/domain/model"
	"github.com/vibecheck/backend/internal/domain/rules"
	usersvc "github.com/vibecheck/backend/internal/services/users"
	"github.com/vibecheck/backend/internal/transport/http/dto"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
)

type MeHandler struct {
	service *usersvc.Service
	log     *zap.Logger
	now     func() time.Time
}

func NewMeHandler(service *usersvc.Service, log *zap.Logger) *MeHandler {
	return &MeHandler{
		service: service,
		log:     orNop(log),
		now:     time.Now,
	}
}

func (h *MeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "user service is unavailable")
		return
	}

	user, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		h.handleError(w, r, "failed to load profile", err)
		return
	}

	resp := dto.MeResponse{
		ID:         user.ID,
		Phone:      user.Phone,
		Email:      user.Email,
		Name:       user.Name,
		Gender:     user.Gender,
		LookingFor: user.LookingFor,
		Bio:        user.Bio,
		Photos:     user.Photos,
		IsVerified: user.IsVerified,
		IsLive:     user.AvailableAt(h.now()),
		LiveUntil:  user.LiveUntil,
	}
	if resp.Photos == nil {
		resp.Photos = []string{}
	}
	if user.Birthdate != nil {
		age := rules.AgeAt(*user.Birthdate, h.now())
		resp.Age = &age
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MeHandler) GoLive(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "user service is unavailable")
		return
	}

	var req dto.GoLiveRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}

	user, err := h.service.GoLive(r.Context(), identity.UserID, req.Minutes)
	if err != nil {
		h.handleError(w, r, "failed to go live", err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.liveResponse(user))
}

func (h *MeHandler) GoOffline(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeUnavailable(w, "user service is unavailable")
		return
	}

	user, err := h.service.GoOffline(r.Context(), identity.UserID)
	if err != nil {
		h.handleError(w, r, "failed to go offline", err)
		return
	}

	httperrors.Write(w, http.StatusOK, h.liveResponse(user))
}

func (h *MeHandler) liveResponse(user model.User) dto.LiveResponse {
	return dto.LiveResponse{
		IsLive:    user.AvailableAt(h.now()),
		LiveUntil: user.LiveUntil,
	}
}

func (h *MeHandler) handleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, usersvc.ErrValidation):
		writeBadRequest(w, httperrors.CodeValidation, "minutes must be between 1 and 240")
	case errors.Is(err, usersvc.ErrNotFound):
		writeNotFound(w, httperrors.CodeUserNotFound, "user not found")
	default:
		writeFailure(w, r, h.log, message, err)
	}
}
