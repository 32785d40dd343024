package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ConnectionCounter reports the number of open realtime connections.
type ConnectionCounter interface {
	ConnectionCount() int
}

type HealthHandler struct {
	connections ConnectionCounter
}

func NewHealthHandler(connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{
		connections: connections,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"connections": h.connections.ConnectionCount(),
		"time":        time.Now().UTC().Format(time.RFC3339),
	})
}
