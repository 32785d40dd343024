package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/middleware"
	ws "marketchat/internal/infrastructure/websocket"
	"marketchat/pkg/logger"
	"marketchat/pkg/response"
)

type WebSocketHandler struct {
	gateway        *ws.Gateway
	authMiddleware *middleware.AuthMiddleware
	upgrader       gorillaws.Upgrader
}

// NewWebSocketHandler accepts any origin when allowedOrigins is empty.
func NewWebSocketHandler(gateway *ws.Gateway, authMiddleware *middleware.AuthMiddleware, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		gateway:        gateway,
		authMiddleware: authMiddleware,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// HandleWebSocket authenticates the handshake, upgrades the connection and
// serves it until the client goes away.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token, _ = middleware.BearerToken(c.Request().Header.Get("Authorization"))
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Warn("WebSocket: upgrade failed for user %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(userID, conn)
	h.gateway.Connect(client)

	go client.WritePump()
	client.ReadPump(c.Request().Context(), h.gateway)

	return nil
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
