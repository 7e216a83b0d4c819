package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vibecheck/backend/internal/domain/model"
	authsvc "github.com/vibecheck/backend/internal/services/auth"
	"github.com/vibecheck/backend/internal/transport/http/dto"
	httperrors "github.com/vibecheck/backend/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// decodeOptionalJSON accepts an empty body and leaves target untouched.
func decodeOptionalJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	if err := decodeJSON(r, target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.WriteCode(w, http.StatusBadRequest, code, message)
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.WriteCode(w, http.StatusUnauthorized, code, message)
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.WriteCode(w, http.StatusNotFound, code, message)
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.WriteCode(w, http.StatusConflict, code, message)
}

func writeTooFast(w http.ResponseWriter, retryAfterSec int64, message string) {
	if retryAfterSec > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
	}
	httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
		Code:          httperrors.CodeTooFast,
		Message:       message,
		RetryAfterSec: retryAfterSec,
	})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.WriteCode(w, http.StatusInternalServerError, code, message)
}

func writeUnavailable(w http.ResponseWriter, message string) {
	httperrors.WriteCode(w, http.StatusServiceUnavailable, httperrors.CodeServiceUnavailable, message)
}

// writeFailure logs the wrapped chain and answers with a detail-free 500.
func writeFailure(w http.ResponseWriter, r *http.Request, log *zap.Logger, message string, err error) {
	if log != nil {
		log.Error(message,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeInternal(w, httperrors.CodeInternal, message)
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func uuidParam(r *http.Request, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func toUserSummary(u model.UserSummary) dto.UserSummaryResponse {
	photos := u.Photos
	if photos == nil {
		photos = []string{}
	}
	return dto.UserSummaryResponse{
		ID:     u.ID,
		Name:   u.Name,
		Photos: photos,
		Bio:    u.Bio,
		Age:    u.Age,
	}
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
