package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHub(t *testing.T, hub *Hub) (*httptest.Server, chan struct{}) {
	t.Helper()
	registered := make(chan struct{}, 4)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		userID := r.URL.Query().Get("user")
		hub.Register(userID, conn)
		registered <- struct{}{}
		defer func() {
			hub.Unregister(userID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	return srv, registered
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestPublishReachesEveryConnectionOfBuyer(t *testing.T) {
	hub := NewHub(nil)
	srv, registered := serveHub(t, hub)
	defer srv.Close()

	a := dial(t, srv, "buyer-1")
	defer a.Close()
	b := dial(t, srv, "buyer-1")
	defer b.Close()
	other := dial(t, srv, "buyer-2")
	defer other.Close()
	for i := 0; i < 3; i++ {
		<-registered
	}
	assert.Equal(t, 2, hub.Connections("buyer-1"))

	require.NoError(t, hub.Publish(context.Background(), "buyer-1", "line_submitted", map[string]string{"id": "x"}))

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		assert.Equal(t, "line_submitted", ev.Event)
	}

	_ = other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestSendToOfflineBuyerIsNotAnError(t *testing.T) {
	hub := NewHub(nil)
	assert.NoError(t, hub.Send("nobody", []byte("{}")))
	assert.Equal(t, 0, hub.Connections("nobody"))
}
