package ws

// Envelope is the typed frame sent to websocket clients.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Envelope types.
const (
	TypeMessage = "message"
	TypeError   = "error"
	TypeStatus  = "status"
)

// ErrorPayload is the payload of an error envelope.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusPayload is the payload of a status envelope, sent to a connection
// when it is admitted.
type StatusPayload struct {
	Message string `json:"message"`
}

// Error codes sent to the offending connection.
const (
	CodeInvalidMessage  = "INVALID_MESSAGE"
	CodeValidationError = "VALIDATION_ERROR"
)
