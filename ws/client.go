// Package ws binds gorilla websocket connections to the relay runtime. Each
// connection gets a read pump feeding the router and a write pump draining a
// buffered send channel, so slow receivers never block the dispatch path.
package ws

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/errors"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Client implements contract.Transport over one websocket connection.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	log     *slog.Logger
	closed  atomic.Bool
	closing sync.Once
}

func NewClient(conn *websocket.Conn, log *slog.Logger, sendBufferSize int, maxMessageSize int64) *Client {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

// Send enqueues one frame without blocking. A full buffer means the receiver
// is too slow; the frame is dropped and the caller told.
func (c *Client) Send(payload []byte) error {
	if c.closed.Load() {
		return errors.ErrTransportClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errors.ErrSendBufferFull
	}
}

// CloseWithCode sends a close control frame carrying an application code,
// then tears the connection down. Idempotent.
func (c *Client) CloseWithCode(code int, reason string) {
	c.closing.Do(func() {
		c.closed.Store(true)
		close(c.done)
		deadline := time.Now().Add(writeWait)
		message := websocket.FormatCloseMessage(code, reason)
		if err := c.conn.WriteControl(websocket.CloseMessage, message, deadline); err != nil {
			c.log.Debug("close frame write failed", "err", err)
		}
		if err := c.conn.Close(); err != nil {
			c.log.Debug("connection close failed", "err", err)
		}
	})
}

func (c *Client) IsOpen() bool {
	return !c.closed.Load()
}

// readPump delivers inbound frames to onFrame until the connection dies,
// then fires onClose exactly once. Liveness is enforced with a read deadline
// refreshed by pongs.
func (c *Client) readPump(onFrame func([]byte), onClose func()) {
	defer func() {
		c.CloseWithCode(websocket.CloseNormalClosure, "")
		onClose()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Debug("read pump ended", "err", err)
			}
			return
		}
		onFrame(raw)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings. Any write failure ends the pump; the read pump notices the dead
// connection and runs the close path. Closing the client releases the pump
// immediately instead of leaving it parked until the next ping tick.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("frame write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
