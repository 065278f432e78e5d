package storage

import (
	"context"

	"github.com/chatterd/chatterd/internal/models"
)

// MessageStorage defines the message store contract consumed by the
// broadcast core and the history endpoint.
type MessageStorage interface {
	// CreateMessage persists a message and returns it with the assigned ID.
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)

	// ListMessagesPaged returns one page of messages and the total count.
	// Page 1 is the newest window of history; within a page messages are
	// ordered oldest first.
	ListMessagesPaged(ctx context.Context, page, pageSize int) ([]models.Message, int64, error)
}
