package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startFeed(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/feed", NewHandler(hub, zerolog.Nop()).HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastsEventsToSubscribers(t *testing.T) {
	hub, url := startFeed(t)
	first := dial(t, url)
	second := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientsCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(Event{Type: EventNoteCreated, NoteID: 9, UserID: 3})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, EventNoteCreated, got.Type)
		assert.Equal(t, int64(9), got.NoteID)
		assert.Equal(t, int64(3), got.UserID)
		assert.False(t, got.At.IsZero())
	}
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub, url := startFeed(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientsCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientsCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.clients[slow] = struct{}{}

	hub.broadcastEvent(Event{Type: EventRatingSaved, NoteID: 1})
	assert.Len(t, hub.clients, 1)

	hub.broadcastEvent(Event{Type: EventRatingSaved, NoteID: 1})
	assert.Empty(t, hub.clients)

	_, open := <-slow.send
	assert.True(t, open, "queued event is still readable")
	_, open = <-slow.send
	assert.False(t, open)
}

func TestHub_PublishDoesNotBlockWithoutRunLoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(Event{Type: EventNoteUpdated, NoteID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}
