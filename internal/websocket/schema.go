package websocket

import "github.com/stemsi/examforge/internal/session"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSession Event = "session"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// SessionMessage reports the signed-in user. User is null after sign-out.
type SessionMessage struct {
	Event   Event         `json:"event"`
	User    *session.User `json:"user"`
	Loading bool          `json:"loading"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
