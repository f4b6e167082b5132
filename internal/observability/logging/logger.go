// Package logging provides structured logging helpers with zerolog.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger returns the process-wide logger.
func Logger() zerolog.Logger {
	return log.Logger
}

// WithSession returns a logger with call-session context.
func WithSession(sessionID string) zerolog.Logger {
	return log.With().
		Str("sessionId", sessionID).
		Logger()
}

// WithStream returns a logger with call-session and stream context.
func WithStream(sessionID, streamSID string) zerolog.Logger {
	return log.With().
		Str("sessionId", sessionID).
		Str("streamSid", streamSID).
		Logger()
}

// WithComponent returns a logger with a component tag.
func WithComponent(component string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Logger()
}
