// Package realtime provides the AI-leg adapter: a websocket client for
// the OpenAI Realtime API that performs the one-time session handshake
// and exposes concurrency-safe send/receive for the relay pumps.
package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"ai-voice-relay-service/internal/wire"
)

// Config holds everything needed to open and initialize one realtime
// session. Instructions and Greeting are opaque pass-through text.
type Config struct {
	URL    string
	Model  string
	APIKey string

	Voice         string
	Instructions  string
	Temperature   float64
	TurnDetection wire.TurnDetection

	// Greeting, when non-empty, seeds the conversation so the AI speaks
	// first. GreetingDelay gives the telephony leg a moment to settle
	// before the seed message is sent.
	Greeting      string
	GreetingDelay time.Duration
}

// Client is a connected realtime session. Writes are mutex-serialized:
// the inbound pump and the interruption coordinator both send on it.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
}

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// Dial opens the AI-leg connection with bearer credentials and the fixed
// protocol version header, then sends the session-initialization
// handshake. Any failure is fatal for the call; there is no retry.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	endpoint, err := buildURL(cfg.URL, cfg.Model)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial realtime endpoint: %w (status %s)", err, resp.Status)
		}
		return nil, fmt.Errorf("dial realtime endpoint: %w", err)
	}

	c := &Client{conn: conn}
	if err := c.initializeSession(cfg); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize realtime session: %w", err)
	}
	return c, nil
}

func buildURL(base, model string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse realtime URL: %w", err)
	}
	q := u.Query()
	q.Set("model", model)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// initializeSession sends the session.update handshake and, when a
// greeting is configured, the speak-first seed message.
func (c *Client) initializeSession(cfg Config) error {
	update := wire.SessionUpdate{
		Type: "session.update",
		Session: wire.SessionSettings{
			TurnDetection:     cfg.TurnDetection,
			InputAudioFormat:  "g711_ulaw",
			OutputAudioFormat: "g711_ulaw",
			Voice:             cfg.Voice,
			Instructions:      cfg.Instructions,
			Modalities:        []string{"text", "audio"},
			Temperature:       cfg.Temperature,
		},
	}
	log.Debug().Str("voice", cfg.Voice).Msg("Sending session update to realtime endpoint")
	if err := c.Send(update); err != nil {
		return err
	}

	if cfg.Greeting == "" {
		return nil
	}

	if cfg.GreetingDelay > 0 {
		time.Sleep(cfg.GreetingDelay)
	}
	log.Debug().Msg("Seeding initial conversation item")
	if err := c.Send(wire.NewSeedMessage(cfg.Greeting)); err != nil {
		return err
	}
	return c.Send(wire.NewResponseCreate())
}

// ReadEvent blocks for the next JSON event from the endpoint.
func (c *Client) ReadEvent() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Send writes one JSON instruction. Safe for concurrent use.
func (c *Client) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// IsOpen reports whether the connection is still usable.
func (c *Client) IsOpen() bool {
	return !c.closed.Load()
}

// Close closes the connection. Idempotent.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}
