package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-voice-relay-service/internal/app"
	"ai-voice-relay-service/internal/events"
	"ai-voice-relay-service/internal/observability/metrics"
	"ai-voice-relay-service/internal/twiml"
)

// NewRouter constructs the call-facing HTTP router for the service.
func NewRouter(application *app.Application, publisher *events.Publisher, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	h := NewCallHandler(application, publisher, m)

	r.Get("/", h.Index)
	r.HandleFunc("/incoming-call", h.IncomingCall)
	r.Get(twiml.MediaStreamPath, h.MediaStream)

	return r
}
