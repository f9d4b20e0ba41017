package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"live-question-service/internal/domain"
)

type errorBody struct {
	Error  string               `json:"error"`
	Status domain.SessionStatus `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// statusFor maps domain errors onto HTTP statuses. Anything unrecognised is
// a storage or infrastructure failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrGone):
		return http.StatusGone
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientQuestions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}

// publicError is the client-facing form of err; infrastructure details are
// logged and withheld.
func publicError(err error) errorBody {
	if statusFor(err) == http.StatusServiceUnavailable {
		log.Error().Err(err).Msg("request failed")
		return errorBody{Error: "service temporarily unavailable"}
	}
	body := errorBody{Error: err.Error()}
	var gone *domain.GoneError
	if errors.As(err, &gone) {
		body.Status = gone.Status
	}
	return body
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), publicError(err))
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return domain.Validationf("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}

// clientOrigin is the first X-Forwarded-For hop, else the peer address.
func clientOrigin(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
