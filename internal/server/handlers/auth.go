package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/chatterd/chatterd/internal/server/auth"
	"github.com/chatterd/chatterd/internal/server/identity"
	"github.com/chatterd/chatterd/internal/server/middleware"
	"github.com/chatterd/chatterd/pkg/api"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	logger        *slog.Logger
	authService   *auth.Service
	cookieTTL     time.Duration
	secureCookies bool
}

// NewAuthHandler creates a new handler for the auth endpoints.
// secureCookies should be true everywhere except local development.
func NewAuthHandler(logger *slog.Logger, authService *auth.Service, cookieTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		logger:        logger,
		authService:   authService,
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ok, user, regErrs, err := h.authService.Register(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "registration error", slog.Any("error", err))
		h.sendError(w, "An error occurred during registration", http.StatusInternalServerError)
		return
	}

	if !ok {
		h.sendJSON(w, api.RegisterFailedResponse{
			Message: "Registration failed",
			Errors:  regErrs,
		}, http.StatusBadRequest)
		return
	}

	h.sendJSON(w, api.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}, http.StatusOK)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ok, tokenString, user := h.authService.SignIn(ctx, req.Username, req.Password)
	if !ok {
		h.sendError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    tokenString,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	h.sendJSON(w, api.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}, http.StatusOK)
}

// Logout handles POST /api/auth/logout.
// The token itself stays valid until natural expiry; logout only removes
// the cookie from the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearAuthCookie(w)
	h.sendJSON(w, map[string]string{"message": "Logout successful"}, http.StatusOK)
}

// WhoAmI handles GET /api/auth/whoami
func (h *AuthHandler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFrom(r.Context())
	if !ok {
		h.sendError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	h.sendJSON(w, api.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}, http.StatusOK)
}

func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func (h *AuthHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{Message: message}, statusCode)
}
