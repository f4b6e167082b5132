// Package wire defines the JSON frame formats for both legs of a relay
// session: the Twilio Media Streams caller leg and the OpenAI Realtime
// AI leg. Decoding maps every frame onto a closed set of variants; frames
// with unrecognized discriminants decode to an explicit "unknown" variant
// rather than an error.
package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CallerEventType discriminates inbound caller-leg frames.
type CallerEventType string

const (
	CallerEventStart   CallerEventType = "start"
	CallerEventMedia   CallerEventType = "media"
	CallerEventMark    CallerEventType = "mark"
	CallerEventStop    CallerEventType = "stop"
	CallerEventUnknown CallerEventType = "unknown"
)

// CallerFrame is a decoded inbound frame from the caller leg.
// Exactly one of Start/Media is populated, matching Type.
type CallerFrame struct {
	Type  CallerEventType
	Start *CallerStart
	Media *CallerMedia
	Mark  *CallerMark

	// Raw carries the original event discriminant for unknown frames.
	Raw string
}

// CallerStart carries the stream identity assigned by the telephony leg.
type CallerStart struct {
	StreamSID  string
	CallSID    string
	AccountSID string
}

// CallerMedia carries one inbound audio chunk. Payload stays in its wire
// transport encoding (base64 text) and is forwarded opaquely.
type CallerMedia struct {
	TimestampMs int64
	Payload     string
}

// CallerMark is an acknowledgement echo for a previously sent mark frame.
type CallerMark struct {
	Name string
}

// rawCallerFrame mirrors the Twilio Media Streams JSON layout.
type rawCallerFrame struct {
	Event string `json:"event"`
	Start *struct {
		StreamSid  string `json:"streamSid"`
		CallSid    string `json:"callSid"`
		AccountSid string `json:"accountSid"`
	} `json:"start"`
	Media *struct {
		Timestamp json.RawMessage `json:"timestamp"`
		Payload   string          `json:"payload"`
	} `json:"media"`
	Mark *struct {
		Name string `json:"name"`
	} `json:"mark"`
}

// ErrBadTimestamp reports a media frame whose timestamp is not numeric.
// The frame is dropped; the session continues.
type ErrBadTimestamp struct {
	Value string
}

func (e *ErrBadTimestamp) Error() string {
	return fmt.Sprintf("media frame has non-numeric timestamp %q", e.Value)
}

// ParseCallerFrame decodes one caller-leg text frame.
//
// A malformed JSON document returns an error (the session decides whether
// that is fatal). A media frame with a non-numeric timestamp returns
// *ErrBadTimestamp, which callers treat as drop-and-continue.
func ParseCallerFrame(data []byte) (CallerFrame, error) {
	var raw rawCallerFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return CallerFrame{}, fmt.Errorf("decode caller frame: %w", err)
	}

	switch raw.Event {
	case "start":
		f := CallerFrame{Type: CallerEventStart, Start: &CallerStart{}}
		if raw.Start != nil {
			f.Start.StreamSID = raw.Start.StreamSid
			f.Start.CallSID = raw.Start.CallSid
			f.Start.AccountSID = raw.Start.AccountSid
		}
		return f, nil

	case "media":
		if raw.Media == nil {
			return CallerFrame{}, fmt.Errorf("media frame missing media body")
		}
		ts, err := parseTimestamp(raw.Media.Timestamp)
		if err != nil {
			return CallerFrame{}, err
		}
		return CallerFrame{
			Type: CallerEventMedia,
			Media: &CallerMedia{
				TimestampMs: ts,
				Payload:     raw.Media.Payload,
			},
		}, nil

	case "mark":
		f := CallerFrame{Type: CallerEventMark, Mark: &CallerMark{}}
		if raw.Mark != nil {
			f.Mark.Name = raw.Mark.Name
		}
		return f, nil

	case "stop":
		return CallerFrame{Type: CallerEventStop}, nil

	default:
		return CallerFrame{Type: CallerEventUnknown, Raw: raw.Event}, nil
	}
}

// parseTimestamp accepts the timestamp as either a JSON number or a
// quoted decimal string; Twilio sends strings, test tooling tends to
// send numbers.
func parseTimestamp(raw json.RawMessage) (int64, error) {
	s := string(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ErrBadTimestamp{Value: s}
	}
	return ts, nil
}

// Outbound caller-leg frames. These marshal directly to the Twilio
// Media Streams wire format.

// MediaFrame is an outbound audio chunk addressed to a stream.
type MediaFrame struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

// MediaPayload wraps the base64 audio body of an outbound media frame.
type MediaPayload struct {
	Payload string `json:"payload"`
}

// MarkFrame is a lightweight synchronization marker; the caller leg echoes
// marks back in playback order.
type MarkFrame struct {
	Event     string   `json:"event"`
	StreamSid string   `json:"streamSid"`
	Mark      MarkName `json:"mark"`
}

// MarkName carries the mark label.
type MarkName struct {
	Name string `json:"name"`
}

// ClearFrame instructs the caller leg to discard buffered, unplayed audio.
type ClearFrame struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
}

// NewMediaFrame builds an outbound media frame for the given stream.
func NewMediaFrame(streamSID, payload string) MediaFrame {
	return MediaFrame{
		Event:     "media",
		StreamSid: streamSID,
		Media:     MediaPayload{Payload: payload},
	}
}

// NewMarkFrame builds an outbound mark frame for the given stream.
func NewMarkFrame(streamSID, name string) MarkFrame {
	return MarkFrame{
		Event:     "mark",
		StreamSid: streamSID,
		Mark:      MarkName{Name: name},
	}
}

// NewClearFrame builds an outbound clear instruction for the given stream.
func NewClearFrame(streamSID string) ClearFrame {
	return ClearFrame{
		Event:     "clear",
		StreamSid: streamSID,
	}
}
