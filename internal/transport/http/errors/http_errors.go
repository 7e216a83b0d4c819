package errors

import (
	"encoding/json"
	"net/http"
)

// Stable error codes returned in the "code" field.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeDuplicateInteraction = "DUPLICATE_INTERACTION"
	CodeTargetUnavailable    = "TARGET_UNAVAILABLE"
	CodeRequestNotActionable = "REQUEST_NOT_ACTIONABLE"
	CodeMatchNotFound        = "MATCH_NOT_FOUND"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	CodeTooFast              = "TOO_FAST"
	CodeNotFound             = "NOT_FOUND"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodeInternal             = "INTERNAL_ERROR"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RateLimitError is the 429 body; RetryAfterSec mirrors the Retry-After header.
type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteCode writes an APIError with the given status.
func WriteCode(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, APIError{Code: code, Message: message})
}
