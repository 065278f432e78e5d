// Package server wires the handlers, middleware, and websocket core into a
// running HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chatterd/chatterd/internal/config"
	"github.com/chatterd/chatterd/internal/server/auth"
	"github.com/chatterd/chatterd/internal/server/handlers"
	"github.com/chatterd/chatterd/internal/server/middleware"
	"github.com/chatterd/chatterd/internal/server/storage"
	"github.com/chatterd/chatterd/internal/server/token"
	"github.com/chatterd/chatterd/internal/server/ws"
	"github.com/chatterd/chatterd/internal/validation"
)

// Storage bundles the repositories the server depends on.
type Storage interface {
	storage.UserStorage
	storage.MessageStorage
}

// Server is the chatterd HTTP server.
type Server struct {
	logger *slog.Logger
	http   *http.Server
}

// New builds the full middleware and handler chain.
func New(logger *slog.Logger, cfg *config.Config, store Storage) (*Server, error) {
	tokenService, err := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	authService := auth.NewService(logger, store, tokenService)
	validator := validation.New()

	registry := ws.NewRegistry()
	wsHandler := ws.NewHandler(logger, registry, store, validator, originChecker(cfg))

	authHandler := handlers.NewAuthHandler(logger, authService, cfg.TokenTTL, !cfg.Dev)
	messageHandler := handlers.NewMessageHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/whoami", authHandler.WhoAmI)
	mux.HandleFunc("GET /api/messages", messageHandler.List)
	mux.Handle("GET /ws", wsHandler)
	mux.HandleFunc("GET /health", healthHandler.Health)

	var handler http.Handler = mux
	handler = middleware.AuthMiddleware(logger, authService)(handler)
	handler = middleware.CORSMiddleware(cfg.AllowedOrigins)(handler)
	handler = middleware.LoggingWithSkip(logger, []string{"/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return &Server{
		logger: logger,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// originChecker allows same-origin requests plus the configured origins.
// With no configured origins every origin is accepted (local development).
func originChecker(cfg *config.Config) func(*http.Request) bool {
	if len(cfg.AllowedOrigins) == 0 {
		return func(*http.Request) bool { return true }
	}

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return allowed[origin]
	}
}
