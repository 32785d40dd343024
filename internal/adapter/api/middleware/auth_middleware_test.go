package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type stubVerifier map[string]string

func (s stubVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, ok := s[token]
	if !ok {
		return "", stderrors.New("bad token")
	}
	return uid, nil
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{"good": "u1"})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var uid interface{}
			next := func(c echo.Context) error {
				uid = c.Get("uid")
				return c.NoContent(http.StatusOK)
			}

			assert.NoError(t, m.Authenticate(next)(c))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u1", uid)
			} else {
				assert.Nil(t, uid)
				assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestGetUIDFromToken(t *testing.T) {
	m := NewAuthMiddleware(stubVerifier{"good": "u1"})

	uid, err := m.GetUIDFromToken(context.Background(), "good")
	assert.NoError(t, err)
	assert.Equal(t, "u1", uid)

	_, err = m.GetUIDFromToken(context.Background(), "")
	assert.Error(t, err)

	_, err = m.GetUIDFromToken(context.Background(), "bad")
	assert.Error(t, err)
}
