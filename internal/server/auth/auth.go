// Package auth implements credential verification, registration, and
// token-based identity resolution.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chatterd/chatterd/internal/models"
	"github.com/chatterd/chatterd/internal/server/storage"
	"github.com/chatterd/chatterd/internal/server/token"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8
	bcryptCost     = 12
)

// Service is the authentication core. It owns registration invariants and
// sign-in, delegating token issuance and verification to the token service.
type Service struct {
	logger *slog.Logger
	users  storage.UserStorage
	tokens *token.Service
}

// NewService creates an auth service.
func NewService(logger *slog.Logger, users storage.UserStorage, tokens *token.Service) *Service {
	return &Service{
		logger: logger,
		users:  users,
		tokens: tokens,
	}
}

// Register validates the username and password, checks uniqueness, and
// creates the user with a bcrypt password hash. All violated rules are
// accumulated into errs rather than short-circuiting on the first.
// The plaintext password is never logged or returned.
func (s *Service) Register(ctx context.Context, username, password string) (ok bool, user *models.User, errs []string, err error) {
	s.logger.InfoContext(ctx, "registration attempt", slog.String("username", username))

	if utf8.RuneCountInString(username) < minUsernameLen {
		errs = append(errs, fmt.Sprintf("Username must be at least %d characters long", minUsernameLen))
	}

	if utf8.RuneCountInString(password) < minPasswordLen {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", minPasswordLen))
	}

	exists, err := s.users.UserExists(ctx, username)
	if err != nil {
		return false, nil, nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		errs = append(errs, "Username already exists")
	}

	if len(errs) > 0 {
		s.logger.WarnContext(ctx, "registration failed",
			slog.String("username", username),
			slog.Int("violations", len(errs)))
		return false, nil, errs, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return false, nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			// Lost the race between the existence check and the insert.
			return false, nil, []string{"Username already exists"}, nil
		}
		return false, nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("username", username),
		slog.String("user_id", user.ID))
	return true, user, nil, nil
}

// SignIn verifies the username and password and issues a token on success.
// The user-not-found and wrong-password cases are indistinguishable to the
// caller so that usernames cannot be enumerated.
func (s *Service) SignIn(ctx context.Context, username, password string) (bool, string, *models.User) {
	s.logger.InfoContext(ctx, "sign-in attempt", slog.String("username", username))

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		s.logger.WarnContext(ctx, "sign-in failed", slog.String("username", username))
		return false, "", nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "sign-in failed", slog.String("username", username))
		return false, "", nil
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Not fatal for the sign-in itself.
		s.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	} else {
		user.LastLogin = &now
	}

	signed, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue token", slog.Any("error", err))
		return false, "", nil
	}

	s.logger.InfoContext(ctx, "sign-in successful",
		slog.String("username", username),
		slog.String("user_id", user.ID))
	return true, signed, user
}

// ValidateToken verifies the token and loads the live user record, so a
// deleted user is effectively logged out even with an unexpired token.
// Returns nil on any failure.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) *models.User {
	userID, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil
	}

	return user
}
