package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/chatterd/chatterd/internal/server/auth"
	"github.com/chatterd/chatterd/internal/server/identity"
)

// AuthCookieName is the cookie carrying the identity token. Its name and
// transport are a fixed contract with the frontend.
const AuthCookieName = "auth_token"

// skipAuthPrefixes are resolved without touching the token at all.
var skipAuthPrefixes = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/logout",
	"/health",
}

// AuthMiddleware resolves the identity from the auth cookie and attaches it
// to the request context. It never rejects a request: a missing or invalid
// token simply leaves the context without an identity, and authorization is
// decided per endpoint. An invalid cookie is cleared on the way through.
func AuthMiddleware(logger *slog.Logger, authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipAuth(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(AuthCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user := authService.ValidateToken(r.Context(), cookie.Value)
			if user == nil {
				logger.Warn("token validation failed", "path", r.URL.Path)
				ClearAuthCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			logger.Debug("authenticated request",
				"username", user.Username,
				"path", r.URL.Path)
			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}

// ClearAuthCookie expires the auth cookie on the client.
func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func skipAuth(path string) bool {
	path = strings.ToLower(path)
	for _, prefix := range skipAuthPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
