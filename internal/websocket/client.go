package websocket

import (
	"context"
	"encoding/json"
	"time"

	"chatbots-be/internal/pkg/logger"
	"chatbots-be/pkg/sse"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

// Frame is one relayed event as sent over the socket.
type Frame struct {
	Event string `json:"event,omitempty"`
	Data  string `json:"data"`
}

// Conn is the part of *websocket.Conn a Client uses.
type Conn interface {
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client adapts a websocket connection to a relay sink. Send and KeepAlive
// must be called from one goroutine at a time.
type Client struct {
	Conn      Conn
	SessionId string
	logger    logger.ILogger
}

func NewClient(conn Conn, sessionId string, logger logger.ILogger) *Client {
	return &Client{Conn: conn, SessionId: sessionId, logger: logger}
}

func (c *Client) Send(ev sse.Event) error {
	payload, err := json.Marshal(Frame{Event: ev.Name, Data: ev.Data})
	if err != nil {
		return err
	}
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) KeepAlive() error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.PingMessage, nil)
}

// readPump drains the connection and calls cancel once the peer goes away.
// Incoming text is ignored; the socket is one-way.
func (c *Client) readPump(cancel context.CancelFunc) {
	defer cancel()

	c.Conn.SetReadLimit(maxMessageSize)

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("WebSocket", "Connection closed unexpectedly", map[string]interface{}{
					"session_id": c.SessionId,
					"error":      err.Error(),
				})
			}
			return
		}
	}
}
