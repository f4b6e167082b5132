// Package schema validates call event payloads before they are published.
package schema

import (
	"fmt"

	"ai-voice-relay-service/internal/models"
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks the fields downstream consumers key on. Unknown payload
// types pass through untouched.
func (v *Validator) Validate(event any) error {
	switch ev := event.(type) {
	case models.CallStarted:
		return required(map[string]string{
			"eventType": ev.EventType,
			"sessionId": ev.SessionID,
			"streamSid": ev.StreamSID,
		})
	case models.CallInterrupted:
		return required(map[string]string{
			"eventType": ev.EventType,
			"sessionId": ev.SessionID,
			"itemId":    ev.ItemID,
		})
	case models.CallEnded:
		return required(map[string]string{
			"eventType": ev.EventType,
			"sessionId": ev.SessionID,
			"reason":    ev.Reason,
		})
	default:
		return nil
	}
}

func required(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("missing required field %s", name)
		}
	}
	return nil
}
