// Package relay implements the per-call bidirectional streaming relay
// between a telephony media stream and the realtime speech AI endpoint.
// One Session owns the two duplex connections, the mutable timing and
// interruption state, and the two concurrent pump loops.
package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ai-voice-relay-service/internal/events"
	"ai-voice-relay-service/internal/models"
	"ai-voice-relay-service/internal/observability/logging"
	"ai-voice-relay-service/internal/observability/metrics"
	"ai-voice-relay-service/internal/wire"
)

// markLabel is the fixed label attached to every synchronization mark.
const markLabel = "responsePart"

// DialFunc opens the AI-leg connection and performs the one-time
// session-initialization handshake. A failure is fatal for the call.
type DialFunc func(ctx context.Context) (Upstream, error)

// Config wires a Session's collaborators.
type Config struct {
	SessionID string
	Caller    CallerConn
	Dial      DialFunc
	Publisher *events.Publisher
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Session relays one call. Create with NewSession, drive with Run; the
// session and all its state are discarded when Run returns.
type Session struct {
	id        string
	caller    CallerConn
	dial      DialFunc
	upstream  Upstream
	state     *callState
	publisher *events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger

	startTime time.Time

	closeOnce sync.Once
	endReason string

	framesReceived atomic.Int64
	deltasSent     atomic.Int64
	interruptions  atomic.Int64
}

// NewSession creates a relay session for one accepted caller connection.
func NewSession(cfg Config) *Session {
	id := cfg.SessionID
	if id == "" {
		id = NewSessionID()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Session{
		id:        id,
		caller:    cfg.Caller,
		dial:      cfg.Dial,
		state:     newCallState(),
		publisher: cfg.Publisher,
		metrics:   m,
		log:       cfg.Logger.With().Str("sessionId", id).Logger(),
	}
}

// ID returns the session's log-correlation identifier.
func (s *Session) ID() string {
	return s.id
}

// Run opens the AI leg and pumps both directions until either side
// closes. It always returns normally; session-ending errors are the
// normal termination path, not an anomaly.
func (s *Session) Run(ctx context.Context) {
	s.startTime = time.Now()
	s.metrics.RecordCallStart()
	s.log.Info().Msg("Relay session created")

	up, err := s.dial(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to open AI-leg connection, terminating call")
		s.metrics.RecordUpstreamConnectFailure()
		s.endReason = models.ReasonUpstreamConnectFailed
		_ = s.caller.Close()
		s.finish()
		return
	}
	s.upstream = up

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.inboundPump()
	}()
	go func() {
		defer wg.Done()
		s.outboundPump()
	}()
	wg.Wait()

	s.finish()
}

// shutdown closes both legs exactly once and records why. Whichever pump
// exits first wins; closing the peer connection unblocks the other pump.
func (s *Session) shutdown(reason string) {
	s.closeOnce.Do(func() {
		s.endReason = reason
		if s.upstream != nil {
			_ = s.upstream.Close()
		}
		_ = s.caller.Close()
	})
}

func (s *Session) finish() {
	duration := time.Since(s.startTime)
	reason := s.endReason
	if reason == "" {
		reason = models.ReasonPumpError
	}

	s.metrics.RecordCallEnd(reason, duration.Seconds())
	s.publishEnded(reason, duration)

	s.log.Info().
		Str("reason", reason).
		Dur("duration", duration).
		Int64("framesReceived", s.framesReceived.Load()).
		Int64("deltasSent", s.deltasSent.Load()).
		Int64("interruptions", s.interruptions.Load()).
		Msg("Session ended")
}

// --- inbound pump (caller -> AI) ---

func (s *Session) inboundPump() {
	for {
		data, err := s.caller.ReadFrame()
		if err != nil {
			if isExpectedClose(err) {
				s.log.Info().Msg("Caller leg disconnected")
				s.shutdown(models.ReasonCallerDisconnected)
			} else {
				s.log.Error().Err(err).Msg("Caller leg read failed")
				s.shutdown(models.ReasonPumpError)
			}
			return
		}

		frame, err := wire.ParseCallerFrame(data)
		if err != nil {
			var badTS *wire.ErrBadTimestamp
			if errors.As(err, &badTS) {
				// Protocol error for this event only; drop and continue.
				s.log.Warn().Str("timestamp", badTS.Value).Msg("Dropping media frame with malformed timestamp")
				continue
			}
			s.log.Error().Err(err).Msg("Caller frame decode failed")
			s.shutdown(models.ReasonPumpError)
			return
		}

		s.framesReceived.Add(1)
		s.metrics.RecordCallerFrame(string(frame.Type))

		switch frame.Type {
		case wire.CallerEventMedia:
			if !s.handleCallerMedia(frame.Media) {
				return
			}
		case wire.CallerEventStart:
			s.handleCallerStart(frame.Start)
		case wire.CallerEventMark:
			if s.state.PopMark() {
				s.metrics.RecordMarkAcked()
			}
		case wire.CallerEventStop:
			s.log.Debug().Msg("Caller stream stop event")
		default:
			s.log.Debug().Str("event", frame.Raw).Msg("Ignoring unknown caller event")
		}
	}
}

// handleCallerMedia forwards one inbound audio chunk upstream. Returns
// false when the pump must end.
func (s *Session) handleCallerMedia(media *wire.CallerMedia) bool {
	s.state.UpdateTimestamp(media.TimestampMs)
	s.metrics.RecordAudioReceived(len(media.Payload))

	if !s.upstream.IsOpen() {
		// Session is already tearing down; dropping is not an error.
		return true
	}
	if err := s.upstream.Send(wire.NewAudioAppend(media.Payload)); err != nil {
		if !s.upstream.IsOpen() {
			return true
		}
		s.log.Error().Err(err).Msg("Forwarding audio upstream failed")
		s.shutdown(models.ReasonPumpError)
		return false
	}
	return true
}

func (s *Session) handleCallerStart(start *wire.CallerStart) {
	s.state.StartStream(start.StreamSID)
	streamLog := logging.WithStream(s.id, start.StreamSID)
	streamLog.Info().
		Str("callSid", start.CallSID).
		Msg("Incoming stream started")
	s.publishStarted(start.StreamSID)
}

// --- outbound pump (AI -> caller) ---

func (s *Session) outboundPump() {
	for {
		data, err := s.upstream.ReadEvent()
		if err != nil {
			if isExpectedClose(err) {
				s.log.Info().Msg("AI leg disconnected")
				s.shutdown(models.ReasonUpstreamDisconnected)
			} else {
				s.log.Error().Err(err).Msg("AI leg read failed")
				s.shutdown(models.ReasonPumpError)
			}
			return
		}

		ev, err := wire.ParseRealtimeEvent(data)
		if err != nil {
			s.log.Error().Err(err).Msg("AI event decode failed")
			s.shutdown(models.ReasonPumpError)
			return
		}

		s.metrics.RecordRealtimeEvent(ev.Type)
		s.logRealtimeEvent(ev)

		switch ev.Type {
		case wire.RealtimeEventAudioDelta:
			if ev.Delta == "" {
				continue
			}
			if !s.handleAudioDelta(ev) {
				return
			}
		case wire.RealtimeEventSpeechStarted:
			// Barge-in: the caller started talking while an AI utterance
			// was still audibly in progress.
			if s.state.ActiveItemID() != "" {
				s.handleInterruption()
			}
		}
	}
}

func (s *Session) logRealtimeEvent(ev wire.RealtimeEvent) {
	switch {
	case ev.Type == wire.RealtimeEventAudioDelta:
		// Audio payloads are elided from logs.
		s.log.Trace().Str("type", ev.Type).Int("deltaLen", len(ev.Delta)).Msg("AI audio delta")
	case wire.IsInformational(ev.Type):
		s.log.Debug().Str("type", ev.Type).RawJSON("event", ev.Raw).Msg("AI event")
	default:
		s.log.Trace().Str("type", ev.Type).Msg("AI event ignored")
	}
}

// handleAudioDelta re-frames one AI audio fragment for the caller leg and
// emits a synchronization mark. Returns false when the pump must end.
func (s *Session) handleAudioDelta(ev wire.RealtimeEvent) bool {
	streamSID := s.state.StreamSID()
	if streamSID == "" {
		// No stream identity yet; the frame cannot be addressed.
		s.log.Debug().Msg("Dropping AI audio before stream start")
		return true
	}

	payload, err := reencodeAudio(ev.Delta)
	if err != nil {
		s.log.Warn().Err(err).Msg("Dropping AI audio delta with invalid payload")
		return true
	}

	if err := s.caller.WriteJSON(wire.NewMediaFrame(streamSID, payload)); err != nil {
		s.log.Error().Err(err).Msg("Sending audio to caller leg failed")
		s.shutdown(models.ReasonPumpError)
		return false
	}

	s.state.ObserveDelta(ev.ItemID)
	s.deltasSent.Add(1)
	s.metrics.RecordDeltaForwarded()

	if err := s.sendMark(streamSID); err != nil {
		s.log.Error().Err(err).Msg("Sending mark to caller leg failed")
		s.shutdown(models.ReasonPumpError)
		return false
	}
	return true
}

// sendMark emits a mark frame and queues its label. Skipped silently when
// the stream identity is unknown.
func (s *Session) sendMark(streamSID string) error {
	if streamSID == "" {
		return nil
	}
	if err := s.caller.WriteJSON(wire.NewMarkFrame(streamSID, markLabel)); err != nil {
		return err
	}
	s.state.PushMark(markLabel)
	s.metrics.RecordMarkQueued()
	return nil
}

// handleInterruption truncates the in-flight AI utterance at the elapsed
// playback offset, clears the caller leg's buffered audio, and resets the
// utterance state. Runs on the outbound pump goroutine, so no audio-delta
// handling interleaves with it.
func (s *Session) handleInterruption() {
	act, ok := s.state.BeginInterrupt()
	if !ok {
		return
	}

	if act.clamped {
		s.log.Warn().Str("itemId", act.itemID).Msg("Negative playback elapsed time, clamped to zero")
	}

	if act.truncate {
		s.log.Info().
			Str("itemId", act.itemID).
			Int64("audioEndMs", act.elapsedMs).
			Msg("Interrupting AI response")
		if err := s.upstream.Send(wire.NewItemTruncate(act.itemID, act.elapsedMs)); err != nil {
			s.log.Warn().Err(err).Msg("Truncate instruction failed")
		}
	}

	if act.streamSID != "" {
		if err := s.caller.WriteJSON(wire.NewClearFrame(act.streamSID)); err != nil {
			s.log.Warn().Err(err).Msg("Clear instruction failed")
		}
	}

	s.interruptions.Add(1)
	s.metrics.RecordInterruption(act.truncate)
	s.publishInterrupted(act)
}

// --- event publishing ---

func (s *Session) publishStarted(streamSID string) {
	if s.publisher == nil {
		return
	}
	ev := models.CallStarted{
		EventType: models.EventTypeCallStarted,
		SessionID: s.id,
		StreamSID: streamSID,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.publisher.Publish(context.Background(), ev.EventType, s.id, ev); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish call.started")
	}
}

func (s *Session) publishInterrupted(act interruptAction) {
	if s.publisher == nil {
		return
	}
	ev := models.CallInterrupted{
		EventType:  models.EventTypeCallInterrupted,
		SessionID:  s.id,
		StreamSID:  act.streamSID,
		ItemID:     act.itemID,
		AudioEndMs: act.elapsedMs,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := s.publisher.Publish(context.Background(), ev.EventType, s.id, ev); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish call.interrupted")
	}
}

func (s *Session) publishEnded(reason string, duration time.Duration) {
	if s.publisher == nil {
		return
	}
	ev := models.CallEnded{
		EventType:      models.EventTypeCallEnded,
		SessionID:      s.id,
		StreamSID:      s.state.StreamSID(),
		Reason:         reason,
		DurationMs:     duration.Milliseconds(),
		FramesReceived: s.framesReceived.Load(),
		DeltasSent:     s.deltasSent.Load(),
		Interruptions:  s.interruptions.Load(),
		Timestamp:      time.Now().UnixMilli(),
	}
	if err := s.publisher.Publish(context.Background(), ev.EventType, s.id, ev); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish call.ended")
	}
}

// --- helpers ---

// reencodeAudio round-trips the base64 fragment into the caller
// transport's payload encoding, rejecting corrupt fragments.
func reencodeAudio(delta string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(delta)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// isExpectedClose reports whether a read error is an ordinary
// end-of-connection rather than a transport failure.
func isExpectedClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure) {
		return true
	}
	return false
}
