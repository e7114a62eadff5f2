package handlers

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gemcase-backend/internal/models"
	"gemcase-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler serves the public live feed: every opening and every new
// global event is pushed to all connected clients. No per-user data flows
// here, so connections are unauthenticated.
type WebSocketHandler struct {
	redisService *services.RedisService
	hub          *WebSocketHub
}

type WebSocketHub struct {
	clients    map[int64]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	nextID     atomic.Int64
}

// Client owns its connection's write side: all frames go through send and are
// written by a single writePump goroutine, since gorilla/websocket allows at
// most one concurrent writer per connection.
type Client struct {
	ID   int64
	conn *websocket.Conn
	send chan *Message
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewWebSocketHandler(redisService *services.RedisService) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		redisService: redisService,
		hub:          hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	client := &Client{
		ID:   h.hub.nextID.Add(1),
		conn: conn,
		send: make(chan *Message, 64),
	}

	h.hub.register <- client
	go client.writePump()

	defer func() {
		h.hub.unregister <- client
	}()

	h.sendRecentDrops(client)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("WebSocket error", zap.Error(err))
			}
			break
		}

		if msg.Type == "PING" {
			client.enqueue(&Message{Type: "PONG", Data: gin.H{"timestamp": time.Now().Unix()}})
		}
	}
}

// writePump drains the send channel onto the wire. It exits, closing the
// connection, when the hub closes send on unregister.
func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// enqueue queues a frame without blocking. A client that cannot keep up
// loses messages rather than stalling the sender.
func (c *Client) enqueue(msg *Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// sendRecentDrops replays the capped feed so a fresh client sees activity
// immediately.
func (h *WebSocketHandler) sendRecentDrops(client *Client) {
	if h.redisService == nil {
		return
	}
	drops, err := h.redisService.RecentDrops(20)
	if err != nil {
		zap.L().Warn("Failed to load recent drops for WS", zap.Error(err))
		return
	}
	client.enqueue(&Message{Type: "RECENT_DROPS", Data: drops})
}

// BroadcastDrop implements services.Broadcaster.
func (h *WebSocketHandler) BroadcastDrop(drop *services.DropFeedItem) {
	if h.redisService != nil {
		if err := h.redisService.PushDrop(drop); err != nil {
			zap.L().Warn("Failed to push drop to feed", zap.Error(err))
		}
	}
	h.hub.broadcast <- &Message{Type: "DROP", Data: drop}
}

// BroadcastEvent implements services.Broadcaster.
func (h *WebSocketHandler) BroadcastEvent(event *models.GlobalEvent) {
	h.hub.broadcast <- &Message{Type: "EVENT", Data: gin.H{
		"type":     event.Type,
		"start_at": event.StartAt,
		"end_at":   event.EndAt,
	}}
}

// run owns the client set. Only the hub closes a client's send channel, so a
// closed channel always means the client is unregistered.
func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.ID] = client

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.ID]; ok {
				delete(hub.clients, client.ID)
				close(client.send)
			}

		case message := <-hub.broadcast:
			for _, client := range hub.clients {
				client.enqueue(message)
			}
		}
	}
}
