package events

import (
	"context"
	"testing"

	"ai-voice-relay-service/internal/models"
)

func TestNew_DisabledModes(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"explicitly disabled", &Config{Enabled: false, Brokers: []string{"broker:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p.enabled {
				t.Error("expected publisher disabled")
			}
			if p.writer != nil {
				t.Error("expected no Kafka writer in log-only mode")
			}
		})
	}
}

func TestNew_Enabled(t *testing.T) {
	p := New(&Config{
		Enabled:   true,
		Brokers:   []string{"broker1:9092", "broker2:9092"},
		Topic:     "voice.call.events",
		Principal: "svc-voice-relay",
	})

	if !p.enabled {
		t.Error("expected publisher enabled")
	}
	if p.writer == nil {
		t.Fatal("expected Kafka writer configured")
	}
	if p.topic != "voice.call.events" {
		t.Errorf("expected topic voice.call.events, got %s", p.topic)
	}
	if p.principal != "svc-voice-relay" {
		t.Errorf("expected principal svc-voice-relay, got %s", p.principal)
	}
	if err := p.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestPublish_LogOnlyMode(t *testing.T) {
	p := New(nil)

	ev := models.CallStarted{
		EventType: models.EventTypeCallStarted,
		SessionID: "session_1",
		StreamSID: "MZ1",
		Timestamp: 1234,
	}
	if err := p.Publish(context.Background(), ev.EventType, ev.SessionID, ev); err != nil {
		t.Fatalf("expected log-only publish to succeed, got %v", err)
	}
}

func TestPublish_ValidationFailure(t *testing.T) {
	p := New(nil)

	// Missing sessionId must be rejected before any write.
	ev := models.CallEnded{
		EventType: models.EventTypeCallEnded,
		Reason:    models.ReasonCallerDisconnected,
	}
	if err := p.Publish(context.Background(), ev.EventType, "", ev); err == nil {
		t.Fatal("expected validation error for incomplete event")
	}
}

func TestClose_NoWriter(t *testing.T) {
	p := New(nil)
	if err := p.Close(); err != nil {
		t.Errorf("expected nil close on log-only publisher, got %v", err)
	}
}
