package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"marketchat/internal/usecase"
	"marketchat/pkg/errors"
	"marketchat/pkg/response"
)

type AuthMiddleware struct {
	verifier usecase.TokenVerifier
}

func NewAuthMiddleware(verifier usecase.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		token, ok := BearerToken(authHeader)
		if !ok {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set("uid", uid)

		return next(c)
	}
}

// GetUIDFromToken verifies a raw token outside the middleware chain, as the
// websocket handshake does.
func (m *AuthMiddleware) GetUIDFromToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.Unauthorized("Authentication required", nil)
	}

	uid, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}

	return uid, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
