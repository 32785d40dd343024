package router

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/handler"
)

// SetupDevRouter only registers routes in development and when a token
// issuer is available.
func SetupDevRouter(e *echo.Echo, environment string, devTokenHandler *handler.DevTokenHandler) {
	if environment != "development" || devTokenHandler == nil {
		return
	}

	e.POST("/v1/dev/token", devTokenHandler.GenerateToken)
}
