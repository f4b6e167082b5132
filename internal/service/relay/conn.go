package relay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// CallerConn is the duplex caller-leg connection as the session sees it.
type CallerConn interface {
	// ReadFrame blocks for the next text frame. A connection close or
	// transport error ends the inbound sequence.
	ReadFrame() ([]byte, error)

	// WriteJSON sends one outbound frame. Safe for concurrent use.
	WriteJSON(v any) error

	// Close closes the connection. Idempotent.
	Close() error
}

// Upstream is the duplex AI-leg connection as the session sees it. The
// realtime client implements it; tests substitute a scripted fake.
type Upstream interface {
	// ReadEvent blocks for the next JSON event from the AI endpoint.
	ReadEvent() ([]byte, error)

	// Send writes one JSON instruction. Safe for concurrent use.
	Send(v any) error

	// IsOpen reports whether the connection is still usable. Inbound
	// audio observed after close is silently dropped.
	IsOpen() bool

	// Close closes the connection. Idempotent.
	Close() error
}

const callerWriteTimeout = 10 * time.Second

// callerLeg adapts a gorilla websocket connection to CallerConn.
// Writes are mutex-serialized: the outbound pump and the interruption
// coordinator both write to this connection.
type callerLeg struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed atomic.Bool
}

// NewCallerLeg wraps an upgraded websocket connection from the telephony
// provider.
func NewCallerLeg(conn *websocket.Conn) CallerConn {
	return &callerLeg{conn: conn}
}

func (c *callerLeg) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *callerLeg) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(callerWriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *callerLeg) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}
