// Package ws serves the chat agent over a websocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"CoinSense/internal/domain/models"
	applogger "CoinSense/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Chatter answers a chat message. It never fails; failures come back as reply text.
type Chatter interface {
	Reply(ctx context.Context, msg models.ChatMessage) *models.Reply
}

// inbound frame; same shape as the HTTP chat request
type frame struct {
	Text    string `json:"text"`
	Persona string `json:"persona"`
	UserID  string `json:"user_id"`
}

type errorFrame struct {
	Error string `json:"error"`
}

type Option func(*ChatHandler)

// WithPingInterval sets how often the server pings. The read deadline is twice that.
func WithPingInterval(d time.Duration) Option {
	return func(h *ChatHandler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithAllowedOrigins restricts upgrades to the listed origins. Empty allows all.
func WithAllowedOrigins(origins []string) Option {
	return func(h *ChatHandler) { h.origins = origins }
}

// ChatHandler upgrades GET /ws/chat and answers one reply per inbound frame.
type ChatHandler struct {
	chat         Chatter
	log          *applogger.Logger
	pingInterval time.Duration
	origins      []string
	upgrader     websocket.Upgrader
}

func NewChatHandler(chat Chatter, log *applogger.Logger, opts ...Option) *ChatHandler {
	if log == nil {
		log = applogger.NewNop()
	}
	h := &ChatHandler{chat: chat, log: log, pingInterval: 30 * time.Second}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *ChatHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/chat", h.Serve)
}

func (h *ChatHandler) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range h.origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Serve runs the session until the peer goes away.
func (h *ChatHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	session := uuid.NewString()
	h.log.Info("ws session opened", applogger.String("session", session), applogger.String("remote", c.RealIP()))

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})

	go h.pingLoop(ctx, conn)

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("ws read failed", applogger.String("session", session), applogger.Error(err))
			}
			break
		}

		var f frame
		if err := json.Unmarshal(b, &f); err != nil || strings.TrimSpace(f.Text) == "" {
			if werr := h.write(conn, errorFrame{Error: "expected {\"text\": \"...\"}"}); werr != nil {
				break
			}
			continue
		}
		if f.UserID == "" {
			f.UserID = session
		}

		reply := h.chat.Reply(ctx, models.ChatMessage{
			ID:      uuid.NewString(),
			UserID:  f.UserID,
			Text:    f.Text,
			Persona: f.Persona,
			SentAt:  time.Now().UTC(),
		})
		if err := h.write(conn, reply); err != nil {
			h.log.Warn("ws write failed", applogger.String("session", session), applogger.Error(err))
			break
		}
	}

	h.log.Info("ws session closed", applogger.String("session", session))
	return nil
}

func (h *ChatHandler) write(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// pingLoop uses WriteControl, which is safe alongside the session's writer.
func (h *ChatHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				return
			}
		}
	}
}
