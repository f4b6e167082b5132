// Package http provides the call-facing HTTP surface: the call-control
// responder and the media-stream websocket endpoint that hands off to a
// relay session.
package http

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ai-voice-relay-service/internal/app"
	"ai-voice-relay-service/internal/events"
	"ai-voice-relay-service/internal/observability/logging"
	"ai-voice-relay-service/internal/observability/metrics"
	"ai-voice-relay-service/internal/service/realtime"
	"ai-voice-relay-service/internal/service/relay"
	"ai-voice-relay-service/internal/twiml"
	"ai-voice-relay-service/internal/wire"
)

// CallHandler serves the call-control document and upgrades media-stream
// connections into relay sessions.
type CallHandler struct {
	application *app.Application
	publisher   *events.Publisher
	metrics     *metrics.Metrics
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewCallHandler wires a CallHandler.
func NewCallHandler(application *app.Application, publisher *events.Publisher, m *metrics.Metrics) *CallHandler {
	return &CallHandler{
		application: application,
		publisher:   publisher,
		metrics:     m,
		log:         logging.WithComponent("http"),
		upgrader: websocket.Upgrader{
			// The telephony provider connects without an Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Index confirms the service is reachable.
func (h *CallHandler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"message": "AI Voice Relay service is running"}`))
}

// IncomingCall responds to a call notification with a control document
// directing the caller's media to this service's stream endpoint.
func (h *CallHandler) IncomingCall(w http.ResponseWriter, r *http.Request) {
	h.log.Info().Str("host", r.Host).Msg("Incoming call received")

	doc, err := twiml.ConnectStream(r.Host)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build call-control document")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// MediaStream upgrades the caller leg and runs one relay session for the
// life of the call.
func (h *CallHandler) MediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an error response.
		h.log.Warn().Err(err).Msg("Media stream upgrade failed")
		return
	}

	h.log.Info().Str("remote", r.RemoteAddr).Msg("New client connected to media stream")

	sess := relay.NewSession(relay.Config{
		Caller:    relay.NewCallerLeg(conn),
		Dial:      h.dialUpstream,
		Publisher: h.publisher,
		Metrics:   h.metrics,
		Logger:    h.application.Logger,
	})
	sess.Run(r.Context())
}

// dialUpstream opens and initializes the AI leg for one session.
func (h *CallHandler) dialUpstream(ctx context.Context) (relay.Upstream, error) {
	cfg := h.application.Cfg
	return realtime.Dial(ctx, realtime.Config{
		URL:    cfg.OpenAI.URL,
		Model:  cfg.OpenAI.Model,
		APIKey: cfg.OpenAI.APIKey,

		Voice:        cfg.Assistant.Voice,
		Instructions: cfg.Assistant.Instructions,
		Temperature:  cfg.Assistant.Temperature,
		TurnDetection: wire.TurnDetection{
			Type:              cfg.TurnDetection.Type,
			Eagerness:         cfg.TurnDetection.Eagerness,
			CreateResponse:    cfg.TurnDetection.CreateResponse,
			InterruptResponse: cfg.TurnDetection.InterruptResponse,
		},

		Greeting:      cfg.Assistant.Greeting,
		GreetingDelay: cfg.Assistant.GreetingDelay,
	})
}
