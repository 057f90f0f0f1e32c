package realtime

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	h := NewHub()
	ts := httptest.NewServer(h)
	defer ts.Close()

	a := dial(t, ts)
	b := dial(t, ts)
	waitForClients(t, h, 2)

	h.Publish("planner", map[string]string{"action": "생성"})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Topic   string            `json:"topic"`
			Payload map[string]string `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "planner", msg.Topic)
		assert.Equal(t, "생성", msg.Payload["action"])
	}
}

func TestHubDropsDeadClients(t *testing.T) {
	h := NewHub()
	ts := httptest.NewServer(h)
	defer ts.Close()

	conn := dial(t, ts)
	waitForClients(t, h, 1)
	conn.Close()

	// Publishing to a closed socket must not panic or error out; the
	// client just gets dropped.
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() > 0 {
		h.Publish("planner", "ping")
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, h.ClientCount())
}
