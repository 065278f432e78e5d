package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterd/chatterd/internal/models"
	"github.com/chatterd/chatterd/internal/server/identity"
	"github.com/chatterd/chatterd/pkg/api"
)

// mockMessageStorage records the paging arguments it was called with
type mockMessageStorage struct {
	messages  []models.Message
	listError error
	gotPage   int
	gotSize   int
}

func (m *mockMessageStorage) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	saved := *msg
	saved.ID = int64(len(m.messages) + 1)
	m.messages = append(m.messages, saved)
	return &saved, nil
}

func (m *mockMessageStorage) ListMessagesPaged(ctx context.Context, page, pageSize int) ([]models.Message, int64, error) {
	if m.listError != nil {
		return nil, 0, m.listError
	}
	m.gotPage = page
	m.gotSize = pageSize
	return m.messages, int64(len(m.messages)), nil
}

func setupMessageHandler(store *mockMessageStorage) *MessageHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewMessageHandler(logger, store)
}

func authedRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	user := &models.User{ID: "user-1", Username: "alice", CreatedAt: time.Now()}
	return req.WithContext(identity.WithUser(req.Context(), user))
}

func TestMessageHandler_List_RequiresIdentity(t *testing.T) {
	h := setupMessageHandler(&mockMessageStorage{})

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMessageHandler_List_ReturnsPage(t *testing.T) {
	store := &mockMessageStorage{
		messages: []models.Message{
			{ID: 1, Content: "first", Creator: "alice", CreatedAt: time.Now()},
			{ID: 2, Content: "second", Creator: "bob", CreatedAt: time.Now()},
		},
	}
	h := setupMessageHandler(store)

	w := httptest.NewRecorder()
	h.List(w, authedRequest("/api/messages?page=2&pageSize=50"))

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.PagedMessagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.TotalCount)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 50, resp.PageSize)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "first", resp.Items[0].Content)

	assert.Equal(t, 2, store.gotPage)
	assert.Equal(t, 50, store.gotSize)
}

func TestMessageHandler_List_ClampsPaging(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantPage int
		wantSize int
	}{
		{name: "defaults", target: "/api/messages", wantPage: 1, wantSize: 20},
		{name: "zero page", target: "/api/messages?page=0", wantPage: 1, wantSize: 20},
		{name: "negative page", target: "/api/messages?page=-3", wantPage: 1, wantSize: 20},
		{name: "oversized page size", target: "/api/messages?pageSize=500", wantPage: 1, wantSize: 100},
		{name: "garbage values", target: "/api/messages?page=abc&pageSize=xyz", wantPage: 1, wantSize: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockMessageStorage{}
			h := setupMessageHandler(store)

			w := httptest.NewRecorder()
			h.List(w, authedRequest(tt.target))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantPage, store.gotPage)
			assert.Equal(t, tt.wantSize, store.gotSize)
		})
	}
}

func TestMessageHandler_List_StorageError(t *testing.T) {
	h := setupMessageHandler(&mockMessageStorage{listError: errors.New("db gone")})

	w := httptest.NewRecorder()
	h.List(w, authedRequest("/api/messages"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db gone")
}
