// Package hubclient is a Go client for the hub's websocket protocol. It is
// used by integration tests and bots; browsers speak the same frames.
package hubclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const readyEvent = "connection:ready"

var (
	ErrClosed   = errors.New("connection closed")
	ErrNotReady = errors.New("hub did not send connection:ready")
)

type Config struct {
	// URL of the websocket endpoint, e.g. ws://localhost:8080/api/v1/ws.
	URL         string
	Token       string
	UserId      string
	DisplayName string
	Header      http.Header
	// EventBuffer is the number of received events held before the read loop
	// waits for the caller.
	EventBuffer int
}

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", m.Type, err)
	}

	return nil
}

// Conn is one hub connection owned by the caller. Close ends it.
type Conn struct {
	ws          *websocket.Conn
	id          string
	userId      string
	displayName string

	events    chan Message
	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

func dialURL(cfg *Config) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}

	query := u.Query()
	if cfg.Token != "" {
		query.Set("token", cfg.Token)
	}
	if cfg.UserId != "" {
		query.Set("user-id", cfg.UserId)
	}
	if cfg.DisplayName != "" {
		query.Set("display-name", cfg.DisplayName)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// Dial connects and waits for the hub's connection:ready greeting.
func Dial(ctx context.Context, cfg *Config) (*Conn, error) {
	u, err := dialURL(cfg)
	if err != nil {
		return nil, err
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u, cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial hub: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to dial hub: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		ws.SetReadDeadline(deadline)
	}

	var ready Message
	if err := ws.ReadJSON(&ready); err != nil {
		ws.Close()
		return nil, fmt.Errorf("failed to read greeting: %w", err)
	}
	if ready.Type != readyEvent {
		ws.Close()
		return nil, fmt.Errorf("%w: got %s", ErrNotReady, ready.Type)
	}

	var greeting struct {
		ConnectionId string `json:"connectionId"`
		UserId       string `json:"userId"`
		DisplayName  string `json:"displayName"`
	}
	if err := ready.Decode(&greeting); err != nil {
		ws.Close()
		return nil, err
	}
	ws.SetReadDeadline(time.Time{})

	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = 256
	}

	c := &Conn{
		ws:          ws,
		id:          greeting.ConnectionId,
		userId:      greeting.UserId,
		displayName: greeting.DisplayName,
		events:      make(chan Message, buffer),
		done:        make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

func (c *Conn) Id() string {
	return c.id
}

func (c *Conn) UserId() string {
	return c.userId
}

func (c *Conn) DisplayName() string {
	return c.displayName
}

func (c *Conn) readLoop() {
	defer close(c.events)

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			c.shutdown(err)
			return
		}

		select {
		case c.events <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.done)
		c.ws.Close()
	})
}

// Events is closed when the connection ends.
func (c *Conn) Events() <-chan Message {
	return c.events
}

// Next returns the next event of any type.
func (c *Conn) Next(ctx context.Context) (Message, error) {
	select {
	case msg, ok := <-c.events:
		if !ok {
			return Message{}, c.closedErr()
		}
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// NextOfType skips events until one of msgType arrives.
func (c *Conn) NextOfType(ctx context.Context, msgType string) (Message, error) {
	for {
		msg, err := c.Next(ctx)
		if err != nil {
			return Message{}, err
		}

		if msg.Type == msgType {
			return msg, nil
		}
	}
}

// Sync sends a ping and waits for the pong. The hub handles a connection's
// messages in order, so everything emitted before Sync has been applied once
// it returns. The events that arrived ahead of the pong are returned.
func (c *Conn) Sync(ctx context.Context) ([]Message, error) {
	if err := c.Emit(ctx, "ping", struct{}{}); err != nil {
		return nil, err
	}

	var before []Message
	for {
		msg, err := c.Next(ctx)
		if err != nil {
			return before, err
		}

		if msg.Type == "pong" {
			return before, nil
		}
		before = append(before, msg)
	}
}

func (c *Conn) closedErr() error {
	<-c.done
	if c.err != nil && !errors.Is(c.err, ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, c.err)
	}

	return ErrClosed
}

func (c *Conn) Emit(ctx context.Context, msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Type: msgType, Payload: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	c.ws.SetWriteDeadline(deadline)

	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Close sends a close frame and ends the connection.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	c.ws.SetWriteDeadline(time.Now().Add(time.Second))
	err := c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	c.shutdown(ErrClosed)

	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("failed to send close: %w", err)
	}

	return nil
}
