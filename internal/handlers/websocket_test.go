package handlers

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gemcase-backend/internal/models"
	"gemcase-backend/internal/services"
)

func dialTestFeed(t *testing.T, h *WebSocketHandler) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", h.HandleWebSocket)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketPingPong(t *testing.T) {
	h := NewWebSocketHandler(nil)
	conn := dialTestFeed(t, h)

	if err := conn.WriteJSON(Message{Type: "PING"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if msg.Type != "PONG" {
		t.Errorf("reply type = %q, want PONG", msg.Type)
	}
}

// Drops and server replies share one connection. Firing broadcasts from
// several goroutines while the reader answers a ping must still yield
// well-formed frames, every one of them accounted for.
func TestWebSocketConcurrentBroadcasts(t *testing.T) {
	h := NewWebSocketHandler(nil)
	conn := dialTestFeed(t, h)

	// A ping round-trip proves the connection is registered with the hub
	// before anything is broadcast.
	if err := conn.WriteJSON(Message{Type: "PING"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "PONG" {
		t.Fatalf("handshake: %v %+v", err, msg)
	}

	const writers, perWriter = 4, 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				h.BroadcastDrop(&services.DropFeedItem{
					OpenID:      int64(i*perWriter + j),
					DisplayName: "tester",
					CaseSlug:    "clutch",
					CaseName:    "Clutch Case",
					ItemName:    fmt.Sprintf("drop %d/%d", i, j),
					Rarity:      models.RarityMilSpec,
					OpenedAt:    time.Now().UTC().Format(time.RFC3339),
				})
			}
		}(i)
	}
	wg.Wait()

	got := 0
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for got < writers*perWriter {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("after %d drops: %v", got, err)
		}
		if msg.Type == "DROP" {
			got++
		}
	}
}
