package models

import "time"

// User represents a registered chat user.
// PasswordHash is a bcrypt hash and must never leave the server.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"` // nil until first successful sign-in
}
