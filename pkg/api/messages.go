package api

import "github.com/chatterd/chatterd/internal/models"

// CreateMessageRequest is the payload of an inbound websocket text frame.
// The constraints mirror what the server persists: free text, bounded length.
type CreateMessageRequest struct {
	Content string `json:"content" validate:"required,max=200"`
}

// PagedMessagesResponse is the body of GET /api/messages.
type PagedMessagesResponse struct {
	Items      []models.Message `json:"items"`
	TotalCount int64            `json:"totalCount"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
}
