package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterd/chatterd/internal/config"
	"github.com/chatterd/chatterd/internal/server/handlers"
	"github.com/chatterd/chatterd/internal/server/middleware"
	"github.com/chatterd/chatterd/internal/server/storage/sqlite"
	"github.com/chatterd/chatterd/pkg/api"
)

// setupServer boots the full chain on an in-memory database.
func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		JWTSecret: "e2e-test-secret",
		TokenTTL:  time.Hour,
		Dev:       true,
	}

	srv, err := New(logger, cfg, store)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.http.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getWithCookie(t *testing.T, ts *httptest.Server, path string, cookie *http.Cookie) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func registerAndLogin(t *testing.T, ts *httptest.Server, username, password string) *http.Cookie {
	t.Helper()

	resp := postJSON(t, ts, "/api/auth/register", api.RegisterRequest{
		Username: username,
		Password: password,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts, "/api/auth/login", api.LoginRequest{
		Username: username,
		Password: password,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == middleware.AuthCookieName {
			return c
		}
	}
	t.Fatal("login response did not set the auth cookie")
	return nil
}

func dialWS(t *testing.T, ts *httptest.Server, cookie *http.Cookie) (*websocket.Conn, error) {
	t.Helper()

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{}
	if cookie != nil {
		header.Set("Cookie", cookie.String())
	}

	conn, resp, err := websocket.DefaultDialer.Dial(u, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	if err == nil && cookie != nil {
		// Drain the status greeting sent on admission.
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, readErr := conn.ReadMessage()
		require.NoError(t, readErr)
		require.Contains(t, string(data), `"status"`)
	}
	return conn, err
}

func TestServer_RegisterLoginChat(t *testing.T) {
	ts := setupServer(t)

	aliceCookie := registerAndLogin(t, ts, "alice", "password123")
	bobCookie := registerAndLogin(t, ts, "bob", "hunter2hunter2")

	// Identity survives the round trip through the cookie.
	resp := getWithCookie(t, ts, "/api/auth/whoami", aliceCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var who api.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&who))
	assert.Equal(t, "alice", who.Username)

	aliceConn, err := dialWS(t, ts, aliceCookie)
	require.NoError(t, err)
	bobConn, err := dialWS(t, ts, bobCookie)
	require.NoError(t, err)

	require.NoError(t, aliceConn.WriteMessage(websocket.TextMessage, []byte(`{"content":"hello bob"}`)))

	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var envelope struct {
			Type    string `json:"type"`
			Payload struct {
				Content string `json:"content"`
				Creator string `json:"creator"`
			} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &envelope))
		assert.Equal(t, "message", envelope.Type)
		assert.Equal(t, "hello bob", envelope.Payload.Content)
		assert.Equal(t, "alice", envelope.Payload.Creator)
	}

	// The broadcast was persisted and shows up in history.
	resp = getWithCookie(t, ts, "/api/messages", bobCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page api.PagedMessagesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, int64(1), page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "hello bob", page.Items[0].Content)
	assert.Equal(t, "alice", page.Items[0].Creator)
}

func TestServer_RegisterReportsAllViolations(t *testing.T) {
	ts := setupServer(t)

	resp := postJSON(t, ts, "/api/auth/register", api.RegisterRequest{
		Username: "al",
		Password: "short",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var failed api.RegisterFailedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&failed))
	assert.Len(t, failed.Errors, 2)
}

func TestServer_LoginRejectsBadCredentials(t *testing.T) {
	ts := setupServer(t)

	registerAndLogin(t, ts, "alice", "password123")

	resp := postJSON(t, ts, "/api/auth/login", api.LoginRequest{
		Username: "alice",
		Password: "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var errResp api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "Invalid username or password", errResp.Message)
}

func TestServer_WebsocketRequiresAuth(t *testing.T) {
	ts := setupServer(t)

	conn, err := dialWS(t, ts, nil)
	require.NoError(t, err, "the upgrade itself succeeds; the close follows")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	assert.Equal(t, "Authentication required", closeErr.Text)
}

func TestServer_MessagesRequireAuth(t *testing.T) {
	ts := setupServer(t)

	resp := getWithCookie(t, ts, "/api/messages", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_InvalidCookieIsCleared(t *testing.T) {
	ts := setupServer(t)

	stale := &http.Cookie{Name: middleware.AuthCookieName, Value: "not-a-token"}
	resp := getWithCookie(t, ts, "/api/auth/whoami", stale)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AuthCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "invalid auth cookie should be expired by the response")
}

func TestServer_Health(t *testing.T) {
	ts := setupServer(t)

	resp := getWithCookie(t, ts, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health handlers.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
}

func TestServer_HistoryPaging(t *testing.T) {
	ts := setupServer(t)

	cookie := registerAndLogin(t, ts, "alice", "password123")
	conn, err := dialWS(t, ts, cookie)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		payload := fmt.Sprintf(`{"content":"message %d"}`, i)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
		// Consume the echo so sends stay ordered behind persistence.
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}

	// Page 1 holds the newest window, so page 2 steps back in history.
	resp := getWithCookie(t, ts, "/api/messages?page=2&pageSize=2", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page api.PagedMessagesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, int64(5), page.TotalCount)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "message 1", page.Items[0].Content)
	assert.Equal(t, "message 2", page.Items[1].Content)
}
