// Package ws implements the real-time core: the connection registry, the
// per-connection read loop, and message fan-out to all live connections.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatterd/chatterd/internal/models"
	"github.com/chatterd/chatterd/internal/server/identity"
	"github.com/chatterd/chatterd/internal/server/storage"
	"github.com/chatterd/chatterd/internal/validation"
	"github.com/chatterd/chatterd/pkg/api"
)

// maxFrameSize caps inbound frames well above any valid message so that an
// over-length content degrades to a validation error instead of tearing the
// connection down; only a frame past this hard cap closes the transport.
const maxFrameSize = 64 << 10

// Handler upgrades HTTP requests to websocket connections and runs the
// per-connection receive loop.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	messages  storage.MessageStorage
	validator *validation.Validator
	upgrader  websocket.Upgrader
}

// NewHandler creates the websocket handler.
func NewHandler(logger *slog.Logger, registry *Registry, messages storage.MessageStorage, validator *validation.Validator, checkOrigin func(*http.Request) bool) *Handler {
	return &Handler{
		logger:    logger,
		registry:  registry,
		messages:  messages,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP handles GET /ws. The connection is admitted to the registry
// only when the access gate attached an identity to the request context;
// otherwise it is closed immediately with a policy violation.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, authenticated := identity.UserFrom(r.Context())

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	conn := newConn(wsConn, user)

	if !authenticated {
		h.logger.Warn("unauthorized websocket connection attempt", "remote_addr", r.RemoteAddr)
		if err := conn.close(websocket.ClosePolicyViolation, "Authentication required"); err != nil {
			h.logger.Debug("error closing unauthenticated connection", "error", err)
		}
		return
	}

	wsConn.SetReadLimit(maxFrameSize)

	h.registry.Add(conn)
	h.logger.Info("websocket client connected",
		"username", user.Username,
		"total_clients", h.registry.Len())

	if err := conn.Send(TypeStatus, StatusPayload{Message: "Connected as " + user.Username}); err != nil {
		h.logger.Debug("failed to send status envelope", "error", err)
	}

	h.readLoop(r.Context(), conn)
}

// readLoop receives frames until the peer closes or the transport fails.
// A malformed or invalid message never terminates the connection; the loop
// always resumes reading. The loop owns the connection's lifecycle and
// removes it from the registry on every exit path.
func (h *Handler) readLoop(ctx context.Context, conn *Conn) {
	done := make(chan struct{})
	defer func() {
		close(done)
		h.registry.Remove(conn)
		if err := conn.close(websocket.CloseNormalClosure, ""); err != nil {
			h.logger.Debug("error closing connection", "error", err)
		}
		h.logger.Info("websocket client disconnected",
			"username", conn.user.Username,
			"total_clients", h.registry.Len())
	}()

	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.keepAlive(conn, done)

	for {
		frameType, data, err := conn.ws.ReadMessage()
		if err != nil {
			// Close frames and transport errors both end the loop.
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error",
					"username", conn.user.Username,
					"error", err)
			}
			return
		}

		if frameType != websocket.TextMessage {
			continue
		}

		h.handleFrame(ctx, conn, data)
	}
}

// keepAlive pings the peer until the read loop ends. The read deadline is
// refreshed by the pong handler, so a silent peer times out of ReadMessage.
func (h *Handler) keepAlive(conn *Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// handleFrame validates, persists, and broadcasts one inbound text frame.
func (h *Handler) handleFrame(ctx context.Context, conn *Conn, data []byte) {
	// A literal null decodes without error but carries no message.
	var req *api.CreateMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req == nil {
		if sendErr := conn.sendError(CodeInvalidMessage, "Invalid message format"); sendErr != nil {
			h.logger.Debug("failed to send error reply", "error", sendErr)
		}
		return
	}

	if ok, errs := h.validator.Validate(*req); !ok {
		if sendErr := conn.sendError(CodeValidationError, strings.Join(errs, ", ")); sendErr != nil {
			h.logger.Debug("failed to send error reply", "error", sendErr)
		}
		return
	}

	msg := &models.Message{
		Content:   req.Content,
		Creator:   conn.user.Username,
		CreatedAt: time.Now(),
	}

	saved, err := h.messages.CreateMessage(ctx, msg)
	if err != nil {
		// Drop this message but keep the connection reading.
		h.logger.Error("failed to persist message",
			"username", conn.user.Username,
			"error", err)
		return
	}

	h.Broadcast(saved)
}

// Broadcast fans a persisted message out to every connection currently in
// the registry. Sends are independent: a failure on one member never
// affects the others. Failed members are pruned after the enumeration.
func (h *Handler) Broadcast(msg *models.Message) {
	conns := h.registry.Snapshot()

	var dead []*Conn
	for _, c := range conns {
		if err := c.Send(TypeMessage, msg); err != nil {
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		h.registry.Remove(c)
		if err := c.close(websocket.CloseGoingAway, ""); err != nil {
			h.logger.Debug("error closing dead connection", "error", err)
		}
		h.logger.Warn("removed dead connection",
			"username", c.user.Username,
			"total_clients", h.registry.Len())
	}
}
