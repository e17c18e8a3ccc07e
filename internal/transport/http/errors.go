package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"veggie-trivia-service/internal/domain"
)

// statusFor maps game errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionAlreadyFinalized),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrPoolExhausted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is a stable machine-readable name for err.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, domain.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrSessionAlreadyFinalized):
		return "session_already_finalized"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrPoolExhausted):
		return "pool_exhausted"
	default:
		return "internal"
	}
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorPayload `json:"error"`
	Data  any          `json:"data,omitempty"`
}

func errorPayloadFor(err error) errorPayload {
	code := errorCode(err)
	msg := err.Error()
	if code == "internal" {
		msg = "internal error"
	}
	return errorPayload{Code: code, Message: msg}
}

// respondWithError logs the cause and writes a JSON error. data, when set,
// carries a still-valid result (e.g. the terminal game when only the
// leaderboard write failed).
func respondWithError(w http.ResponseWriter, err error, data any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorBody{Error: errorPayloadFor(err), Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
