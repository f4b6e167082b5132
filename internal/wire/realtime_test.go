package wire

import (
	"encoding/json"
	"testing"
)

func TestParseRealtimeEvent_AudioDelta(t *testing.T) {
	data := []byte(`{"type":"response.audio.delta","item_id":"item_42","delta":"cGNt"}`)

	ev, err := ParseRealtimeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Type != RealtimeEventAudioDelta {
		t.Fatalf("expected audio delta, got %s", ev.Type)
	}
	if ev.ItemID != "item_42" {
		t.Errorf("expected item_id item_42, got %s", ev.ItemID)
	}
	if ev.Delta != "cGNt" {
		t.Errorf("expected delta cGNt, got %s", ev.Delta)
	}
	if string(ev.Raw) != string(data) {
		t.Errorf("expected raw body preserved")
	}
}

func TestParseRealtimeEvent_SpeechStarted(t *testing.T) {
	ev, err := ParseRealtimeEvent([]byte(`{"type":"input_audio_buffer.speech_started"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Type != RealtimeEventSpeechStarted {
		t.Fatalf("expected speech_started, got %s", ev.Type)
	}
}

func TestParseRealtimeEvent_MissingType(t *testing.T) {
	if _, err := ParseRealtimeEvent([]byte(`{"delta":"cGNt"}`)); err == nil {
		t.Fatal("expected error for event without type")
	}
	if _, err := ParseRealtimeEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestIsInformational(t *testing.T) {
	tests := []struct {
		eventType string
		want      bool
	}{
		{"error", true},
		{"session.created", true},
		{"rate_limits.updated", true},
		{"input_audio_buffer.speech_started", true},
		{"response.audio.delta", false},
		{"response.audio_transcript.delta", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsInformational(tt.eventType); got != tt.want {
			t.Errorf("IsInformational(%q) = %v, want %v", tt.eventType, got, tt.want)
		}
	}
}

func TestNewItemTruncate_WireFormat(t *testing.T) {
	data, _ := json.Marshal(NewItemTruncate("item_42", 1500))
	want := `{"type":"conversation.item.truncate","item_id":"item_42","content_index":0,"audio_end_ms":1500}`
	if string(data) != want {
		t.Errorf("truncate instruction:\n got %s\nwant %s", data, want)
	}
}

func TestNewAudioAppend_WireFormat(t *testing.T) {
	data, _ := json.Marshal(NewAudioAppend("cGNt"))
	want := `{"type":"input_audio_buffer.append","audio":"cGNt"}`
	if string(data) != want {
		t.Errorf("append instruction:\n got %s\nwant %s", data, want)
	}
}

func TestNewSeedMessage_WireFormat(t *testing.T) {
	data, _ := json.Marshal(NewSeedMessage("Greet the caller."))
	want := `{"type":"conversation.item.create","item":{"type":"message","role":"user","content":[{"type":"input_text","text":"Greet the caller."}]}}`
	if string(data) != want {
		t.Errorf("seed message:\n got %s\nwant %s", data, want)
	}

	rc, _ := json.Marshal(NewResponseCreate())
	if string(rc) != `{"type":"response.create"}` {
		t.Errorf("unexpected response.create encoding: %s", rc)
	}
}
