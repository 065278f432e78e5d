package sqlite

import (
	"context"
	"fmt"

	"github.com/chatterd/chatterd/internal/models"
)

// CreateMessage persists a message and returns it with the assigned ID
func (s *Storage) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (content, creator, created_at)
		VALUES (?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query, msg.Content, msg.Creator, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get message id: %w", err)
	}

	saved := *msg
	saved.ID = id
	return &saved, nil
}

// ListMessagesPaged returns one page of messages together with the total
// message count. Page 1 is the newest window of history; within a page
// messages run oldest first so they read top to bottom.
func (s *Storage) ListMessagesPaged(ctx context.Context, page, pageSize int) ([]models.Message, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `
		SELECT id, content, creator, created_at
		FROM (
			SELECT id, content, creator, created_at
			FROM messages
			ORDER BY created_at DESC, id DESC
			LIMIT ? OFFSET ?
		)
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, pageSize)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.Creator, &msg.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, total, nil
}
