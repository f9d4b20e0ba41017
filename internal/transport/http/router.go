package http

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"live-question-service/internal/app"
	"live-question-service/internal/auth"
)

// Container holds the dependencies of the router.
type Container struct {
	Service       *app.LiveQuestionService
	Feed          *app.Feed
	Authenticator *auth.Authenticator
	// AllowedOrigin is echoed in Access-Control-Allow-Origin; empty means "*".
	AllowedOrigin string
}

// NewRouter wires the REST API, the health check and the websocket endpoint.
func NewRouter(c Container) http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog)
	r.Use(cors(c.AllowedOrigin))
	r.Use(c.Authenticator.Middleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	ws := NewWSHandler(c.Service, c.Feed)
	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)

	h := NewLiveHandler(c.Service)
	api := r.PathPrefix("/api/live-questions").Subrouter()
	api.HandleFunc("/trigger", h.Trigger).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/trigger/individual", h.TriggerIndividual).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/session/{token}", h.GetSession).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/submit/{token}", h.Submit).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/session/{id}/responses", h.Responses).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/session/{id}/complete", h.Complete).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/dashboard/active", h.Active).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/meeting/{meetingId}/sessions", h.MeetingSessions).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/meeting/{meetingId}/assignment/{studentId}", h.Assignment).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/meeting/{meetingId}/stats", h.MeetingStats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/meeting/{meetingId}/participants", h.Join).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/meeting/{meetingId}/participants/{studentId}", h.Leave).Methods(http.MethodDelete, http.MethodOptions)

	return r
}

func cors(origin string) mux.MiddlewareFunc {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-Id, X-User-Role, X-User-Email, X-User-Name")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
