package websocket

import (
	"sync"
	"time"

	"enculture-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	logger logger.ILogger

	send      chan []byte
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

var _ Connection = (*Client)(nil)

func NewClient(hub *Hub, conn *websocket.Conn, userID string, log logger.ILogger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		logger: log,
		send:   make(chan []byte, sendBuffer),
	}
}

func (c *Client) Send(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// readPump keeps the read deadline fresh and unregisters on any read error.
// Inbound frames carry no commands and are only logged.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c, c.userID)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Client", "Unexpected close", map[string]interface{}{"user_id": c.userID, "error": err.Error()})
			}
			return
		}
		c.logger.Debug("Client", "Inbound message ignored", map[string]interface{}{"user_id": c.userID, "bytes": len(msg)})
	}
}

// writePump sends queued messages, one frame each, and pings periodically.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.Unregister(c, c.userID)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Unregister(c, c.userID)
				return
			}
		}
	}
}
