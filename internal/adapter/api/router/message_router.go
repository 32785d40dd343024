package router

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/handler"
	"marketchat/internal/adapter/api/middleware"
)

// SetupMessageRouter sets up the message HTTP API. Every route requires a
// verified bearer token.
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate)

	messageGroup.POST("", messageHandler.SendMessage)
	messageGroup.GET("/conversations", messageHandler.ListConversations)
	messageGroup.GET("/unread/count", messageHandler.UnreadCount)
	messageGroup.GET("/:peerId", messageHandler.ListMessages)
	messageGroup.PATCH("/:id/read", messageHandler.MarkRead)
}
