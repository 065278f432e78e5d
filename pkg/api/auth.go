package api

import "time"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of a user returned by the auth endpoints.
type UserResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// RegisterFailedResponse carries the accumulated registration errors.
type RegisterFailedResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// ErrorResponse is the generic error body for HTTP endpoints.
type ErrorResponse struct {
	Message string `json:"message"`
}
