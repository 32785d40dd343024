package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"marketchat/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 256
)

// Client is one authenticated connection. A user may hold several.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// enqueue never blocks. Callers hold the registry lock or run on the client's
// own read pump, so Send cannot be closed underneath them.
func (c *Client) enqueue(message []byte) bool {
	select {
	case c.Send <- message:
		return true
	default:
		logger.Warn("WebSocket: send queue full for user %s, dropping frame", c.UserID)
		return false
	}
}

// ReadPump reads frames until the connection fails and hands each one to the
// gateway. Frames from one connection are handled in order.
func (c *Client) ReadPump(ctx context.Context, g *Gateway) {
	defer func() {
		g.Disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket: read error for user %s: %v", c.UserID, err)
			}
			return
		}

		g.HandleClientMessage(ctx, c, message)
	}
}

// WritePump drains Send and keeps the connection alive with pings. It exits
// when Send is closed by the registry or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write error for user %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
