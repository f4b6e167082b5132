package wire

import (
	"encoding/json"
	"fmt"
)

// RealtimeEvent is a decoded inbound event from the AI leg, discriminated
// by the wire "type" field. Only the fields the relay acts on are decoded;
// everything else rides along in Raw for observability.
type RealtimeEvent struct {
	Type   string
	Delta  string // base64 audio fragment, audio delta events only
	ItemID string // conversation item id, when the event carries one

	// Raw is the undecoded event body, kept for diagnostic logging.
	Raw json.RawMessage
}

// Realtime event types the relay dispatches on.
const (
	RealtimeEventAudioDelta    = "response.audio.delta"
	RealtimeEventSpeechStarted = "input_audio_buffer.speech_started"
)

// InformationalEventTypes is the allow-list of AI-leg event types logged
// for observability. Everything else is ignored at a lower verbosity.
var InformationalEventTypes = []string{
	"error",
	"response.content.done",
	"rate_limits.updated",
	"response.done",
	"input_audio_buffer.committed",
	"input_audio_buffer.speech_stopped",
	"input_audio_buffer.speech_started",
	"session.created",
}

// IsInformational reports whether the event type is on the allow-list.
func IsInformational(eventType string) bool {
	for _, t := range InformationalEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// ParseRealtimeEvent decodes one AI-leg JSON event.
func ParseRealtimeEvent(data []byte) (RealtimeEvent, error) {
	var raw struct {
		Type   string `json:"type"`
		Delta  string `json:"delta"`
		ItemID string `json:"item_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return RealtimeEvent{}, fmt.Errorf("decode realtime event: %w", err)
	}
	if raw.Type == "" {
		return RealtimeEvent{}, fmt.Errorf("realtime event missing type")
	}
	return RealtimeEvent{
		Type:   raw.Type,
		Delta:  raw.Delta,
		ItemID: raw.ItemID,
		Raw:    json.RawMessage(data),
	}, nil
}

// Outbound AI-leg instructions.

// SessionUpdate is the one-time session-initialization handshake.
type SessionUpdate struct {
	Type    string          `json:"type"`
	Session SessionSettings `json:"session"`
}

// SessionSettings carries the voice, audio format, turn-detection policy
// and persona instructions for the realtime session. Instructions are an
// opaque configuration blob passed through verbatim.
type SessionSettings struct {
	TurnDetection     TurnDetection `json:"turn_detection"`
	InputAudioFormat  string        `json:"input_audio_format"`
	OutputAudioFormat string        `json:"output_audio_format"`
	Voice             string        `json:"voice"`
	Instructions      string        `json:"instructions"`
	Modalities        []string      `json:"modalities"`
	Temperature       float64       `json:"temperature"`
}

// TurnDetection configures the endpoint's voice-activity policy.
type TurnDetection struct {
	Type              string `json:"type"`
	Eagerness         string `json:"eagerness,omitempty"`
	CreateResponse    bool   `json:"create_response"`
	InterruptResponse bool   `json:"interrupt_response"`
}

// AudioAppend forwards one inbound audio chunk to the AI input buffer.
type AudioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// ItemTruncate discards already-generated-but-unplayed audio beyond
// AudioEndMs so the AI transcript matches what the caller actually heard.
type ItemTruncate struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int64  `json:"audio_end_ms"`
}

// ItemCreate seeds the conversation with an initial user message so the
// AI speaks first.
type ItemCreate struct {
	Type string           `json:"type"`
	Item ConversationItem `json:"item"`
}

// ConversationItem is a minimal conversation message.
type ConversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []ItemContent `json:"content"`
}

// ItemContent is one content part of a conversation item.
type ItemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ResponseCreate asks the endpoint to start generating a response.
type ResponseCreate struct {
	Type string `json:"type"`
}

// NewAudioAppend builds an input_audio_buffer.append instruction.
func NewAudioAppend(audio string) AudioAppend {
	return AudioAppend{Type: "input_audio_buffer.append", Audio: audio}
}

// NewItemTruncate builds a conversation.item.truncate instruction.
func NewItemTruncate(itemID string, audioEndMs int64) ItemTruncate {
	return ItemTruncate{
		Type:       "conversation.item.truncate",
		ItemID:     itemID,
		AudioEndMs: audioEndMs,
	}
}

// NewSeedMessage builds a conversation.item.create carrying the
// speak-first prompt as a user text message.
func NewSeedMessage(text string) ItemCreate {
	return ItemCreate{
		Type: "conversation.item.create",
		Item: ConversationItem{
			Type: "message",
			Role: "user",
			Content: []ItemContent{
				{Type: "input_text", Text: text},
			},
		},
	}
}

// NewResponseCreate builds a response.create instruction.
func NewResponseCreate() ResponseCreate {
	return ResponseCreate{Type: "response.create"}
}
