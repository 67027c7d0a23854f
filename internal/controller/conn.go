package controller

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// client owns one websocket. The hub writes through Send; only writePump
// touches the socket for writing.
type client struct {
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(ws *websocket.Conn, sendBuffer int) *client {
	return &client{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send enqueues msg without blocking. It reports false when the queue is full
// or the client is closed.
func (c *client) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which sends a close frame and closes the socket.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})

	return nil
}

func (c controller) writePump(ctx context.Context, cl *client) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		cl.ws.Close()
	}()

	for {
		select {
		case msg := <-cl.send:
			cl.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.DebugContext(ctx, "failed to write message", "error", err)
				cl.Close()
				return
			}
		case <-ticker.C:
			cl.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "failed to write ping", "error", err)
				cl.Close()
				return
			}
		case <-cl.done:
			cl.ws.SetWriteDeadline(time.Now().Add(writeWait))
			cl.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump dispatches inbound frames in order until the socket fails or the
// peer stops answering pings.
func (c controller) readPump(ctx context.Context, cl *client) {
	cl.ws.SetReadLimit(c.config.MaxMessageSize)
	cl.ws.SetReadDeadline(time.Now().Add(c.config.PongWait))
	cl.ws.SetPongHandler(func(string) error {
		return cl.ws.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})

	for {
		_, data, err := cl.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.InfoContext(ctx, "websocket closed unexpectedly", "error", err)
			}
			return
		}
		cl.ws.SetReadDeadline(time.Now().Add(c.config.PongWait))

		if err := c.wsmux.ServeMessage(ctx, data); err != nil {
			c.logger.InfoContext(ctx, "failed to handle websocket message", "error", err)
			c.sendError(ctx, cl, data, err)
		}
	}
}
