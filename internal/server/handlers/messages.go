package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chatterd/chatterd/internal/server/identity"
	"github.com/chatterd/chatterd/internal/server/storage"
	"github.com/chatterd/chatterd/pkg/api"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// MessageHandler serves the message history endpoint.
type MessageHandler struct {
	logger   *slog.Logger
	messages storage.MessageStorage
}

// NewMessageHandler creates a new handler for message history.
func NewMessageHandler(logger *slog.Logger, messages storage.MessageStorage) *MessageHandler {
	return &MessageHandler{
		logger:   logger,
		messages: messages,
	}
}

// List handles GET /api/messages?page=&pageSize=
// Requires an authenticated identity.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := identity.UserFrom(ctx); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "pageSize", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := h.messages.ListMessagesPaged(ctx, page, pageSize)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list messages", slog.Any("error", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.PagedMessagesResponse{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
