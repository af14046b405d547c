package handler_test

import (
	"campusnet/backend/internal/config"
	"campusnet/backend/internal/models"
	"campusnet/backend/internal/storage/storagetest"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token(t, userID)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

// readUntil reads events until one of type typ satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var ev wireEvent
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Type == typ && (match == nil || match(ev.Payload)) {
			return ev.Payload
		}
	}
}

func rosterContains(ids ...string) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var online []string
		if err := json.Unmarshal(raw, &online); err != nil {
			return false
		}
		for _, id := range ids {
			if !slices.Contains(online, id) {
				return false
			}
		}
		return true
	}
}

func TestWebSocket_JoinAndMessage(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)
	storagetest.Connect(t, env.store, "ada", "bob")

	ada := dial(t, server, "ada")
	send(t, ada, models.FrameJoin, "ada")
	readUntil(t, ada, models.EventOnlineUsers, rosterContains("ada"))

	bob := dial(t, server, "bob")
	send(t, bob, models.FrameJoin, "bob")
	readUntil(t, bob, models.EventOnlineUsers, rosterContains("ada", "bob"))
	readUntil(t, ada, models.EventOnlineUsers, rosterContains("ada", "bob"))

	send(t, ada, models.FrameSendMessage, models.SendMessagePayload{Sender: "ada", Receiver: "bob", Content: "hello"})

	var received, echoed models.Message
	require.NoError(t, json.Unmarshal(readUntil(t, bob, models.EventReceiveMessage, nil), &received))
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventReceiveMessage, nil), &echoed))

	assert.Equal(t, "hello", received.Content)
	assert.Equal(t, "ada", received.SenderID)
	assert.False(t, received.IsRead)
	assert.Equal(t, received.ID, echoed.ID)
	assert.Equal(t, received.Content, echoed.Content)

	// Disconnecting drops bob from the roster.
	require.NoError(t, bob.Close())
	readUntil(t, ada, models.EventOnlineUsers, func(raw json.RawMessage) bool {
		var online []string
		return json.Unmarshal(raw, &online) == nil && slices.Equal(online, []string{"ada"})
	})
}

func TestWebSocket_LongMessages(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)
	storagetest.Connect(t, env.store, "ada", "bob")

	ada := dial(t, server, "ada")
	send(t, ada, models.FrameJoin, "ada")
	readUntil(t, ada, models.EventOnlineUsers, rosterContains("ada"))

	longest := strings.Repeat("я", config.MaxMessageLength)
	send(t, ada, models.FrameSendMessage, models.SendMessagePayload{Sender: "ada", Receiver: "bob", Content: longest})

	var echoed models.Message
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventReceiveMessage, nil), &echoed))
	assert.Equal(t, longest, echoed.Content)

	tooLong := strings.Repeat("я", config.MaxMessageLength+1)
	send(t, ada, models.FrameSendMessage, models.SendMessagePayload{Sender: "ada", Receiver: "bob", Content: tooLong})

	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventError, nil), &payload))
	assert.Contains(t, payload.Message, "longer than")

	// The session survives both frames.
	send(t, ada, models.FrameSendMessage, models.SendMessagePayload{Sender: "ada", Receiver: "bob", Content: "still here"})
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventReceiveMessage, nil), &echoed))
	assert.Equal(t, "still here", echoed.Content)
}

func TestWebSocket_Errors(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	ada := dial(t, server, "ada")

	send(t, ada, models.FrameJoin, "bob")
	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventError, nil), &payload))
	assert.Contains(t, payload.Message, "another user")

	send(t, ada, models.FrameSendMessage, models.SendMessagePayload{Sender: "ada", Receiver: "bob", Content: "hi"})
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventError, nil), &payload))
	assert.Contains(t, payload.Message, "connections")

	send(t, ada, models.FrameSendMessage, models.SendMessagePayload{Sender: "bob", Receiver: "ada", Content: "hi"})
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventError, nil), &payload))
	assert.Contains(t, payload.Message, "another user")

	send(t, ada, "dance", nil)
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventError, nil), &payload))
	assert.Contains(t, payload.Message, "unknown frame type")

	require.NoError(t, ada.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, json.Unmarshal(readUntil(t, ada, models.EventError, nil), &payload))
	assert.Equal(t, "malformed frame", payload.Message)
}

func TestWebSocket_RejectsBadTokenAndOrigin(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)
	base := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err = websocket.DefaultDialer.Dial(base+"?token="+token(t, "ada"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://allowed.example")
	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+token(t, "ada"), header)
	require.NoError(t, err)
	conn.Close()
}
