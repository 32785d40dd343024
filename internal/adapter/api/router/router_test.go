package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketchat/internal/adapter/api"
	"marketchat/internal/adapter/api/handler"
	"marketchat/internal/adapter/api/middleware"
	"marketchat/internal/adapter/repository"
	"marketchat/internal/domain/entity"
	"marketchat/internal/infrastructure/jwtauth"
	ws "marketchat/internal/infrastructure/websocket"
	"marketchat/internal/usecase"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	echo *echo.Echo
	auth *jwtauth.JWTAuthClient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := repository.NewMemoryUserRepository(
		&entity.User{ID: "u1", Username: "Amina"},
		&entity.User{ID: "u2", Username: "Brian"},
		&entity.User{ID: "u3", Username: "Chebet"},
	)
	ads := repository.NewMemoryAdRepository(
		&entity.Ad{ID: "ad1", SellerID: "u2", Title: "Toyota Vitz 2012", Status: entity.AdStatusApproved},
	)
	messageUseCase := usecase.NewMessageUseCase(repository.NewMemoryMessageRepository(), users, ads)

	auth := jwtauth.NewJWTAuthClient("test-secret", "marketchat", time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(auth)
	gateway := ws.NewGateway(ws.NewManager(), messageUseCase)

	e := echo.New()
	e.Validator = api.NewValidator()

	Setup(e, Handlers{
		Message:   handler.NewMessageHandler(messageUseCase),
		WebSocket: handler.NewWebSocketHandler(gateway, authMiddleware, nil),
		Health:    handler.NewHealthHandler(gateway),
		DevToken:  handler.NewDevTokenHandler(auth),
	}, authMiddleware, "development")

	return &testServer{echo: e, auth: auth}
}

func (s *testServer) token(t *testing.T, uid string) string {
	t.Helper()
	token, err := s.auth.GenerateToken(context.Background(), uid)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, uid, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if uid != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token(t, uid))
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestEndToEndSendAndInbox(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/messages", "u1",
		`{"receiver_id":"u2","ad_id":"ad1","content":"Is this still available?"}`)
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)

	var sent struct {
		Message entity.Message     `json:"message"`
		Sender  entity.UserSummary `json:"sender"`
		Ad      entity.AdSummary   `json:"ad"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	assert.Equal(t, "Is this still available?", sent.Message.Content)
	assert.False(t, sent.Message.Read)
	assert.Equal(t, "u1", sent.Message.SenderID)
	assert.Equal(t, "u2", sent.Message.ReceiverID)
	assert.Equal(t, "Amina", sent.Sender.Name)
	assert.Equal(t, "Toyota Vitz 2012", sent.Ad.Title)

	code, env = s.do(t, http.MethodGet, "/v1/messages/conversations", "u2", "")
	require.Equal(t, http.StatusOK, code)

	var conversations []struct {
		Counterpart entity.UserSummary `json:"counterpart"`
		LastMessage entity.Message     `json:"last_message"`
		UnreadCount int                `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &conversations))
	require.Len(t, conversations, 1)
	assert.Equal(t, "u1", conversations[0].Counterpart.ID)
	assert.Equal(t, "Is this still available?", conversations[0].LastMessage.Content)
	assert.Equal(t, 1, conversations[0].UnreadCount)

	code, env = s.do(t, http.MethodGet, "/v1/messages/unread/count", "u2", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))
}

func TestThreadPaginationAndRead(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 3; i++ {
		code, _ := s.do(t, http.MethodPost, "/v1/messages", "u1", `{"receiver_id":"u2","ad_id":"ad1","content":"ping"}`)
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := s.do(t, http.MethodGet, "/v1/messages/u1?page=1&limit=2", "u2", "")
	require.Equal(t, http.StatusOK, code)

	var page struct {
		Items      []entity.Message `json:"items"`
		Total      int64            `json:"total"`
		Page       int              `json:"page"`
		PageSize   int              `json:"pageSize"`
		TotalPages int              `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
	for _, m := range page.Items {
		assert.True(t, m.Read)
	}

	_, env = s.do(t, http.MethodGet, "/v1/messages/unread/count", "u2", "")
	assert.JSONEq(t, `{"count":1}`, string(env.Data))
}

func TestThreadPageOutOfRange(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/v1/messages", "u1", `{"receiver_id":"u2","ad_id":"ad1","content":"ping"}`)
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodGet, "/v1/messages/u1?page=4611686018427387904", "u2", "")
	require.Equal(t, http.StatusOK, code)

	var page struct {
		Items []entity.Message `json:"items"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Total)
}

func TestMarkReadRoute(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/v1/messages", "u1", `{"receiver_id":"u2","ad_id":"ad1","content":"hi"}`)
	var sent struct {
		Message entity.Message `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	path := "/v1/messages/" + sent.Message.ID + "/read"

	code, env := s.do(t, http.MethodPatch, path, "u3", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	code, env = s.do(t, http.MethodPatch, path, "u2", "")
	require.Equal(t, http.StatusOK, code)
	var read entity.Message
	require.NoError(t, json.Unmarshal(env.Data, &read))
	assert.True(t, read.Read)
	require.NotNil(t, read.ReadAt)

	code, env = s.do(t, http.MethodPatch, "/v1/messages/missing/read", "u2", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestSendErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"receiver_id":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing field", `{"receiver_id":"u2","content":"hi"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"self", `{"receiver_id":"u1","ad_id":"ad1","content":"hi"}`, http.StatusBadRequest, "INVALID_OPERATION"},
		{"too long", `{"receiver_id":"u2","ad_id":"ad1","content":"` + strings.Repeat("a", 1001) + `"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown receiver", `{"receiver_id":"ghost","ad_id":"ad1","content":"hi"}`, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, "/v1/messages", "u1", tt.body)
			assert.Equal(t, tt.status, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/v1/messages/conversations", "/v1/messages/unread/count", "/v1/messages/u2"} {
		code, env := s.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/messages/conversations", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer forged")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDevToken(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/dev/token", "", `{"user_id":"u9"}`)
	require.Equal(t, http.StatusOK, code)

	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))

	uid, err := s.auth.VerifyToken(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "u9", uid)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connections":0`)
}

func dial(t *testing.T, server *httptest.Server, query string, header http.Header) (*gorillaws.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	return gorillaws.DefaultDialer.Dial(url, header)
}

func readFrame(t *testing.T, conn *gorillaws.Conn) ws.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ws.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketHandshakeRequiresToken(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.echo)
	defer server.Close()

	_, resp, err := dial(t, server, "", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, server, "?token=forged", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketSendThenFetch(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.echo)
	defer server.Close()

	sender, _, err := dial(t, server, "?token="+s.token(t, "u1"), nil)
	require.NoError(t, err)
	defer sender.Close()

	receiver, _, err := dial(t, server, "", http.Header{"Authorization": {"Bearer " + s.token(t, "u2")}})
	require.NoError(t, err)
	defer receiver.Close()

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		return strings.Contains(rec.Body.String(), `"connections":2`)
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, sender.WriteJSON(map[string]interface{}{
		"type": ws.EventSendMessage,
		"data": map[string]string{"receiver_id": "u2", "ad_id": "ad1", "content": "hello over ws", "temp_id": "t-1"},
	}))

	ack := readFrame(t, sender)
	assert.Equal(t, ws.EventMessageSent, ack.Type)

	pushed := readFrame(t, receiver)
	assert.Equal(t, ws.EventNewMessage, pushed.Type)

	code, env := s.do(t, http.MethodGet, "/v1/messages/u2", "u1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "hello over ws")
}
