package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/domain/models"
)

type echoChat struct {
	mu   sync.Mutex
	msgs []models.ChatMessage
}

func (c *echoChat) Reply(_ context.Context, msg models.ChatMessage) *models.Reply {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
	return &models.Reply{MessageID: msg.ID, Action: models.ActionPrice, Text: "re: " + msg.Text}
}

func (c *echoChat) last() models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msgs[len(c.msgs)-1]
}

func dial(t *testing.T, h *ChatHandler, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	return websocket.DefaultDialer.Dial(u, header)
}

func TestChatRoundTrip(t *testing.T) {
	chat := &echoChat{}
	conn, _, err := dial(t, NewChatHandler(chat, nil), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"text": "price of eth"}))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var reply models.Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "re: price of eth", reply.Text)
	assert.NotEmpty(t, reply.MessageID)

	got := chat.last()
	assert.Empty(t, got.Persona, "an empty persona is left to the engine fallback")
	assert.NotEmpty(t, got.UserID, "user id falls back to the session")
}

func TestChatRejectsMalformedFrame(t *testing.T) {
	conn, _, err := dial(t, NewChatHandler(&echoChat{}, nil), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ef errorFrame
	require.NoError(t, conn.ReadJSON(&ef))
	assert.NotEmpty(t, ef.Error)

	// the session survives a bad frame
	require.NoError(t, conn.WriteJSON(map[string]string{"text": "trending", "persona": "murad"}))
	var reply models.Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "re: trending", reply.Text)
}

func TestChatOriginCheck(t *testing.T) {
	h := NewChatHandler(&echoChat{}, nil, WithAllowedOrigins([]string{"https://app.coinsense.io"}))

	_, resp, err := dial(t, h, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, h, http.Header{"Origin": {"https://app.coinsense.io"}})
	require.NoError(t, err)
	_ = conn.Close()
}
