package websocket

import (
	"enculture-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection and blocks until it closes. The write pump
// runs on its own goroutine.
func ServeWs(hub *Hub, conn *websocket.Conn, userID string, log logger.ILogger) {
	client := NewClient(hub, conn, userID, log)
	go client.writePump()
	hub.Register(client, userID)
	client.readPump()
}
