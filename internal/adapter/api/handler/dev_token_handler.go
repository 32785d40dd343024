package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"marketchat/pkg/errors"
	"marketchat/pkg/response"
)

// TokenIssuer mints bearer tokens for a user id.
type TokenIssuer interface {
	GenerateToken(ctx context.Context, uid string) (string, error)
}

type DevTokenHandler struct {
	issuer TokenIssuer
}

func NewDevTokenHandler(issuer TokenIssuer) *DevTokenHandler {
	return &DevTokenHandler{
		issuer: issuer,
	}
}

type devTokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// GenerateToken issues a token for any user id. Only routed in development.
func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	token, err := h.issuer.GenerateToken(c.Request().Context(), req.UserID)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to generate token", err))
	}

	return response.Success(c, map[string]string{
		"token":   token,
		"user_id": req.UserID,
	})
}
