// Package identity carries the resolved request identity through the
// request context. Absence of a user is part of the contract: the access
// gate attaches an identity when it can, and each endpoint decides whether
// one is required.
package identity

import (
	"context"

	"github.com/chatterd/chatterd/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// WithUser returns a context carrying the resolved user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom extracts the resolved user from the context, if any.
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
