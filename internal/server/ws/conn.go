package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatterd/chatterd/internal/models"
)

const (
	writeWait = 10 * time.Second

	// pongWait is how long a peer may stay silent before the read loop
	// gives up on it; pings go out well inside that window.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Conn is a live connection bound to exactly one resolved identity at
// admission time.
type Conn struct {
	ws   *websocket.Conn
	user *models.User

	// Guards writes: broadcasts from other connection goroutines and error
	// replies from the owning read loop may send concurrently.
	writeMu sync.Mutex
}

func newConn(ws *websocket.Conn, user *models.User) *Conn {
	return &Conn{ws: ws, user: user}
}

// User returns the identity the connection was admitted with.
func (c *Conn) User() *models.User {
	return c.user
}

// Send writes a typed envelope to the peer as a single text frame.
func (c *Conn) Send(envelopeType string, payload any) error {
	data, err := json.Marshal(Envelope{Type: envelopeType, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}
	return nil
}

// ping probes the peer; a write failure means the transport is gone.
func (c *Conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// sendError reports a problem with an inbound frame to this peer only.
func (c *Conn) sendError(code, message string) error {
	return c.Send(TypeError, ErrorPayload{Code: code, Message: message})
}

// close attempts a graceful close handshake and then closes the socket.
func (c *Conn) close(closeCode int, reason string) error {
	c.writeMu.Lock()
	deadline := time.Now().Add(writeWait)
	_ = c.ws.SetWriteDeadline(deadline)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(closeCode, reason), deadline)
	c.writeMu.Unlock()

	return c.ws.Close()
}
