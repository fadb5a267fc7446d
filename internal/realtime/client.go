package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Sender is the connection a router replies through. Its role starts as
// participant; Promote irreversibly grants moderator scope.
type Sender interface {
	ID() string
	IsModerator() bool
	Promote()
	Send(event string, payload interface{})
}

// Router dispatches inbound channel events to the application.
type Router interface {
	// HandleOpen is called once after the connection registers, to push the
	// initial snapshot to the new client.
	HandleOpen(ctx context.Context, s Sender)
	// HandleEvent is called for every inbound message.
	HandleEvent(ctx context.Context, s Sender, msg WSMessage)
}

// Client represents a single WebSocket connection.
type Client struct {
	id        string
	moderator bool
	hub       *Hub
	router    Router
	conn      *websocket.Conn
	send      chan WSMessage
	logger    *zap.Logger
}

// ID returns the connection identifier. Also the voter identity for upvotes.
func (c *Client) ID() string {
	return c.id
}

// IsModerator reports whether this connection has been promoted.
// Only read from the connection's own read loop, where Promote also runs.
func (c *Client) IsModerator() bool {
	return c.moderator
}

// Promote grants this connection moderator scope. Irreversible until disconnect.
func (c *Client) Promote() {
	if c.moderator {
		return
	}
	c.moderator = true
	c.hub.Promote(c)
}

// Send queues an event directly to this connection.
func (c *Client) Send(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, router Router, logger *zap.Logger) gin.HandlerFunc {
	return func(gc *gin.Context) {
		conn, err := upgrader.Upgrade(gc.Writer, gc.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			id:     uuid.New().String(),
			hub:    hub,
			router: router,
			conn:   conn,
			send:   make(chan WSMessage, 256),
			logger: logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	ctx := context.Background()
	c.router.HandleOpen(ctx, c)

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		c.router.HandleEvent(ctx, c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
