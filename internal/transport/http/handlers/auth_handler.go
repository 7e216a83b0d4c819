package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	authsvc "github.com/vibecheck/backend/internal/services/auth"
	"github.com/vibecheck/backend/internal/transport/http/dto"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
	log     *zap.Logger
}

func NewAuthHandler(service *authsvc.Service, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: orNop(log)}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}

	res, err := h.service.Login(r.Context(), authsvc.LoginInput{
		Phone:    req.Phone,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toTokensResponse(res))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "auth service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toTokensResponse(res))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "auth service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), identity.SID); err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "auth service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity.UserID); err != nil {
		h.handleError(w, r, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, httperrors.CodeValidation, "phone or email is required")
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		writeUnauthorized(w, httperrors.CodeInvalidCredentials, "invalid credentials")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication failed")
	default:
		writeFailure(w, r, h.log, "auth request failed", err)
	}
}

func toTokensResponse(res authsvc.AuthResult) dto.AuthTokensResponse {
	return dto.AuthTokensResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresInSec: max(0, int64(time.Until(res.AccessExpires).Seconds())),
		Me: dto.AuthMeResponse{
			ID:      res.Me.ID,
			Role:    res.Me.Role,
			Name:    res.Me.Name,
			Created: res.Me.Created,
		},
	}
}
