package schema

import (
	"testing"

	"ai-voice-relay-service/internal/models"
)

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		event   any
		wantErr bool
	}{
		{
			name: "valid call.started",
			event: models.CallStarted{
				EventType: models.EventTypeCallStarted,
				SessionID: "session_1",
				StreamSID: "MZ1",
			},
		},
		{
			name: "call.started missing stream",
			event: models.CallStarted{
				EventType: models.EventTypeCallStarted,
				SessionID: "session_1",
			},
			wantErr: true,
		},
		{
			name: "valid call.interrupted",
			event: models.CallInterrupted{
				EventType: models.EventTypeCallInterrupted,
				SessionID: "session_1",
				ItemID:    "item_1",
			},
		},
		{
			name: "call.interrupted missing item",
			event: models.CallInterrupted{
				EventType: models.EventTypeCallInterrupted,
				SessionID: "session_1",
			},
			wantErr: true,
		},
		{
			name: "valid call.ended",
			event: models.CallEnded{
				EventType: models.EventTypeCallEnded,
				SessionID: "session_1",
				Reason:    models.ReasonCallerDisconnected,
			},
		},
		{
			name: "call.ended missing reason",
			event: models.CallEnded{
				EventType: models.EventTypeCallEnded,
				SessionID: "session_1",
			},
			wantErr: true,
		},
		{
			name:  "unknown payload passes through",
			event: struct{ X int }{X: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.event)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
