package handler

import (
	"errors"

	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/serverutils"
	internalWS "realtime-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type ChatHandler struct {
	store  internalWS.Store
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewChatHandler(store internalWS.Store, hub *internalWS.Hub, log logger.ILogger) *ChatHandler {
	return &ChatHandler{
		store:  store,
		hub:    hub,
		logger: log,
	}
}

// ServeWs authenticates the handshake and hands the connection to the hub.
// Authentication failures are rejected with 401 before the upgrade, so a bad
// handshake never produces a half-open socket.
func (h *ChatHandler) ServeWs(c *fiber.Ctx) error {
	userIdStr := c.Query("userId")
	if userIdStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing userId"})
	}

	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid userId format"})
	}

	user, err := h.store.GetUserByID(c.UserContext(), userId)
	if err != nil {
		if errors.Is(err, serverutils.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unknown user"})
		}
		h.logger.Error("ChatHandler", "Handshake lookup failed", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ChatHandler", "Starting chat session", map[string]interface{}{"user_id": user.Id})
			internalWS.ServeWs(h.hub, conn, user)
			h.logger.Info("ChatHandler", "Chat session ended", map[string]interface{}{"user_id": user.Id})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the chat websocket endpoint.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
