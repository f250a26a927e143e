package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/middleware"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/session"
	ws "github.com/stemsi/examforge/internal/websocket"
)

// sessionBuffer bounds the events queued for one slow client.
const sessionBuffer = 16

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SessionHandler streams session changes of the signed-in user.
type SessionHandler struct {
	hub      *session.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(hub *session.Hub, log zerolog.Logger, allowedOrigins []string) *SessionHandler {
	return &SessionHandler{
		hub:      hub,
		log:      log.With().Str("component", "session_ws").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/session?token=
// Sends the current user on connect, then every change for the same UID
// until the client disconnects. A sign-out is sent with a null user.
func (h *SessionHandler) SessionStream(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("uid", user.UID).Logger()

	out := make(chan interface{}, sessionBuffer)
	unsubscribe := h.hub.Subscribe(func(ev session.Event) {
		if ev.UID != user.UID {
			return
		}
		select {
		case out <- ws.SessionMessage{Event: ws.EventSession, User: ev.User}:
		default:
			wsLog.Warn().Msg("Session stream backlog full, dropping event")
		}
	})
	defer unsubscribe()

	current := user
	if u, ok := h.hub.Current(user.UID); ok {
		current = u
	}
	out <- ws.SessionMessage{Event: ws.EventSession, User: current}

	done := make(chan struct{})
	go h.readLoop(conn, wsLog, out, done)

	wsLog.Info().Msg("Session stream connected")

	for {
		select {
		case <-done:
			return
		case msg := <-out:
			if err := ws.WriteTyped(conn, msg); err != nil {
				wsLog.Debug().Err(err).Msg("Session stream write failed")
				return
			}
		}
	}
}

// readLoop answers pings and reports disconnects. It owns no writes; replies
// go through out so the connection keeps a single writer.
func (h *SessionHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, out chan<- interface{}, done chan<- struct{}) {
	defer close(done)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if ws.IsExpectedClose(err) {
				wsLog.Debug().Msg("Session stream closed")
			} else {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			select {
			case out <- ws.PongResponse{Event: ws.EventPong}:
			default:
			}
		default:
			select {
			case out <- ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)}:
			default:
			}
		}
	}
}
