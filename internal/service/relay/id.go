package relay

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSessionID generates a per-call correlation identifier. It is never
// persisted; the timestamp prefix keeps log files grep-able by call time.
func NewSessionID() string {
	return fmt.Sprintf("session_%s_%s",
		time.Now().UTC().Format("20060102_150405"),
		uuid.NewString()[:8])
}
