package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	goGuard "github.com/MrEthical07/goGuard"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return goGuard.ErrValidation
	}
	return nil
}

// statusFor maps an engine error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, goGuard.ErrValidation):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, goGuard.ErrAuthenticationFailed):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, goGuard.ErrSessionInvalid), errors.Is(err, goGuard.ErrAuthorizationDenied):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, goGuard.ErrIdentityNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, goGuard.ErrIdentityExists),
		errors.Is(err, goGuard.ErrMFAAlreadyEnrolled),
		errors.Is(err, goGuard.ErrMFANotPending),
		errors.Is(err, goGuard.ErrMFANotEnrolled):
		return http.StatusConflict, "conflict"
	case errors.Is(err, goGuard.ErrMFACodeInvalid):
		return http.StatusUnprocessableEntity, "code_invalid"
	case errors.Is(err, goGuard.ErrRateLimited), errors.Is(err, goGuard.ErrCooldownActive):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, goGuard.ErrExternalService), errors.Is(err, goGuard.ErrEngineNotReady):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	setRetryAfter(w, err)
	writeJSON(w, status, errorBody{Error: code, Message: goGuard.UserMessage(err)})
}

func setRetryAfter(w http.ResponseWriter, err error) {
	var rl *goGuard.RateLimitError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterSeconds()))
	}
}
