package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/pkg/validate"
	"github.com/walleto-api/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CodeSentEnvelope answers every endpoint that dispatches a one-time code.
type CodeSentEnvelope struct {
	Message          string `json:"message"`
	ExpiresInSeconds int    `json:"expires_in_seconds,omitempty"`
	SkipOTP          *bool  `json:"skip_otp,omitempty"`
}

// TokenEnvelope wraps session-token responses.
type TokenEnvelope struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	DeviceToken *string      `json:"device_token,omitempty"`
	SkipOTP     bool         `json:"skip_otp"`
	User        *domain.User `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a domain error to its status. Security-sensitive failures get fixed
// messages so responses never reveal quota or which check failed.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many attempts, please try again later")
	case errors.Is(err, domain.ErrInvalidOrExpiredCode):
		writeError(w, http.StatusBadRequest, "invalid or expired verification code")
	case errors.Is(err, domain.ErrDelivery):
		writeError(w, http.StatusInternalServerError, "could not send verification code")
	case errors.Is(err, domain.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, message(err, domain.ErrInvalidCredential))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, message(err, domain.ErrNotFound))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, message(err, domain.ErrConflict))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, message(err, domain.ErrUnauthorized))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, message(err, domain.ErrForbidden))
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, message(err, domain.ErrBadRequest))
	default:
		log.Error().Err(err).Msg("unhandled request error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// message drops the trailing sentinel text from a wrapped error, so
// "email already registered: conflict" reads "email already registered".
func message(err, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

func requestMeta(r *http.Request) domain.RequestMeta {
	return domain.RequestMeta{
		IPAddress: middleware.RealIP(r),
		UserAgent: r.UserAgent(),
	}
}

// currentUserID returns the caller's id, writing 401 when the request carries no claims.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return claims.UserID, true
}

// queryInt parses an optional integer query parameter within [min, max].
func queryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("query parameter '%s' must be an integer between %d and %d", key, min, max)
	}
	return n, nil
}
