package router

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes. The handshake is
// authenticated inside the handler because browsers cannot set headers on it.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
