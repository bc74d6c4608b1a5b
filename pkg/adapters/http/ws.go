package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/tilbot/internal/runtime"
	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Socket event names.
const (
	EventSession     = "session"
	EventUserMessage = "user_message"
	EventMessageSent = "message_sent"
	EventLog         = "log"
	EventBotMessage  = "bot_message"
	EventError       = "error"
)

// Envelope is one websocket frame in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SessionInfo is the payload of the session event sent on connect.
type SessionInfo struct {
	SessionID string `json:"session_id"`
}

// ErrorInfo is the payload of an error event.
type ErrorInfo struct {
	Message string `json:"message"`
}

// conn serializes writes to one websocket. It is the Deliverer of the
// session bound to the connection.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(Envelope{Event: event, Data: data})
}

func (c *conn) Deliver(ctx context.Context, sessionID string, msg domain.Message) error {
	return c.send(EventBotMessage, msg)
}

func (c *conn) ReportFailure(ctx context.Context, sessionID string, err error) {
	_ = c.send(EventError, ErrorInfo{Message: err.Error()})
}

// ServeWS handles GET /ws. Each connection gets a fresh session that lives
// until the socket closes.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	c := &conn{ws: ws}
	id := uuid.NewString()
	logger := s.logger.With("session_id", id)

	// The id goes out before the session can emit its first message.
	if err := c.send(EventSession, SessionInfo{SessionID: id}); err != nil {
		logger.Warn("failed to send session id", "err", err)
		return
	}

	sess, err := s.Sessions.Start(id, func(id string) (*runtime.Session, error) {
		return s.Engine.Start(id, c, runtime.WithLifecycleHooks(s.Streams.Hooks()))
	})
	if err != nil {
		logger.Error("failed to start session", "err", err)
		_ = c.send(EventError, ErrorInfo{Message: err.Error()})
		return
	}
	logger.Info("client connected")
	defer func() {
		if err := s.Sessions.Close(id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			logger.Warn("failed to close session", "err", err)
		}
		logger.Info("client disconnected")
	}()

	// Reads run apart from dispatch so a client that goes away while a
	// Receive is pending cancels it instead of going unnoticed.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	frames := make(chan Envelope)
	go readFrames(ctx, cancel, ws, frames, logger)

	for {
		var env Envelope
		select {
		case <-ctx.Done():
			return
		case env = <-frames:
		}

		switch env.Event {
		case EventUserMessage:
			s.userMessage(ctx, c, sess, env.Data)
		case EventMessageSent:
			logger.Debug("client acknowledged message")
		case EventLog:
			var line string
			if err := json.Unmarshal(env.Data, &line); err != nil {
				line = string(env.Data)
			}
			logger.Info("client log", "log", line)
		default:
			_ = c.send(EventError, ErrorInfo{Message: "unknown event " + env.Event})
		}
	}
}

// readFrames forwards decoded frames to out until the socket fails, then
// cancels ctx.
func readFrames(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, out chan<- Envelope, logger *slog.Logger) {
	defer cancel()
	for {
		var env Envelope
		if err := ws.ReadJSON(&env); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended", "err", err)
			}
			return
		}
		select {
		case out <- env:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) userMessage(ctx context.Context, c *conn, sess *runtime.Session, data json.RawMessage) {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		_ = c.send(EventError, ErrorInfo{Message: "user_message expects a string"})
		return
	}

	clean, err := s.sanitizer.Clean(text)
	if err != nil {
		s.logger.Warn("input rejected", "session_id", sess.ID(), "err", err, "size", len(text))
		_ = c.send(EventError, ErrorInfo{Message: err.Error()})
		return
	}

	if _, err := sess.Receive(ctx, clean); err != nil {
		// Failures were already reported through the Deliverer, and a
		// cancelled ctx means the socket is gone.
		if !errors.Is(err, domain.ErrSessionFailed) && ctx.Err() == nil {
			_ = c.send(EventError, ErrorInfo{Message: err.Error()})
		}
	}
}
