package models

import "time"

// Message is an immutable chat message. Creator holds the username the
// message was attributed to at creation time, not a foreign key, so the
// attribution survives user deletion.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Creator   string    `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
}
