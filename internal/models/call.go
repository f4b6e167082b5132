// Package models defines the data structures for call lifecycle events.
package models

// Event type discriminants for call lifecycle events.
const (
	EventTypeCallStarted     = "call.started"
	EventTypeCallInterrupted = "call.interrupted"
	EventTypeCallEnded       = "call.ended"
)

// CallStarted is emitted once the caller leg's stream has started and the
// AI leg is connected.
type CallStarted struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	StreamSID string `json:"streamSid"`
	Timestamp int64  `json:"timestamp"`
}

// CallInterrupted is emitted when caller speech barges in on an AI
// utterance and the utterance is truncated.
type CallInterrupted struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	StreamSID  string `json:"streamSid"`
	ItemID     string `json:"itemId"`
	AudioEndMs int64  `json:"audioEndMs"`
	Timestamp  int64  `json:"timestamp"`
}

// CallEnded is emitted on session teardown, whatever the reason.
type CallEnded struct {
	EventType      string `json:"eventType"`
	SessionID      string `json:"sessionId"`
	StreamSID      string `json:"streamSid"`
	Reason         string `json:"reason"`
	DurationMs     int64  `json:"durationMs"`
	FramesReceived int64  `json:"framesReceived"`
	DeltasSent     int64  `json:"deltasSent"`
	Interruptions  int64  `json:"interruptions"`
	Timestamp      int64  `json:"timestamp"`
}

// Teardown reasons recorded on CallEnded.
const (
	ReasonCallerDisconnected    = "caller_disconnected"
	ReasonUpstreamDisconnected  = "upstream_disconnected"
	ReasonUpstreamConnectFailed = "upstream_connect_failed"
	ReasonPumpError             = "pump_error"
)
