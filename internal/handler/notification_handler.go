package handler

import (
	"enculture-be/internal/dto"
	"enculture-be/internal/pkg/logger"
	"enculture-be/internal/pkg/serverutils"
	"enculture-be/internal/service"
	internalWS "enculture-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type NotificationHandler struct {
	service   *service.NotificationService
	hub       *internalWS.Hub
	logger    logger.ILogger
	jwtSecret string
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, log logger.ILogger, jwtSecret string) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		hub:       hub,
		logger:    log,
		jwtSecret: jwtSecret,
	}
}

// ServeWs upgrades the request and attaches the connection to the path's
// user. With auth enabled the token's user_id must match the path.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing user id")
	}

	if h.jwtSecret != "" {
		tokenStr := serverutils.BearerOrQuery(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')"))
		}
		tokenUser, err := serverutils.ParseUserToken(h.jwtSecret, tokenStr)
		if err != nil {
			h.logger.Warn("NotificationHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
		if tokenUser != userID {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Token does not match user"))
		}
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID, h.logger)
			h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// Status reports who is connected to this instance.
func (h *NotificationHandler) Status(c *fiber.Ctx) error {
	return c.JSON(dto.ConnectionStatusResponse{
		ConnectedUsers:   h.hub.ConnectedUsers(),
		TotalConnections: h.hub.ConnectionCount(""),
		Status:           "healthy",
	})
}

// Broadcast sends a system-wide notification. Operators only: the route needs
// an admin token and is closed when auth is disabled.
func (h *NotificationHandler) Broadcast(c *fiber.Ctx) error {
	var req dto.BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	delivered := h.service.BroadcastSystem(req.Title, req.Message)
	return c.JSON(dto.BroadcastResponse{Success: true, Delivered: delivered})
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notifications")
	notif.Get("/ws/status", h.Status) // before the :user_id route
	notif.Get("/ws/:user_id", h.ServeWs)
	notif.Post("/broadcast", serverutils.AdminMiddleware(h.jwtSecret), h.Broadcast)
}
