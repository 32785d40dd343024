package router

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/handler"
	"marketchat/internal/adapter/api/middleware"
)

type Handlers struct {
	Message   *handler.MessageHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
	DevToken  *handler.DevTokenHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, environment string) {
	SetupHealthRouter(e, h.Health)
	SetupMessageRouter(e, h.Message, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)
	SetupDevRouter(e, environment, h.DevToken)
}
