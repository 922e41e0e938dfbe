package chathub

import (
	"context"
	"log"
	"sync"
	"time"

	"unibuddy/backend/internal/config"
	"unibuddy/backend/internal/models"

	"github.com/gorilla/websocket"
)

// ConnState is the lifecycle of a WebSocketClient.
type ConnState int

const (
	StateAdmitted ConnState = iota
	StateActive
	StateClosed
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	user    *models.User
	roomID  string
	conn    *websocket.Conn
	session RoomSession
	send    chan []byte

	mu        sync.Mutex
	state     ConnState
	closeOnce sync.Once
}

// NewWebSocketClient wraps an upgraded connection. The client starts in
// StateAdmitted; messages sent before Run are buffered.
func NewWebSocketClient(conn *websocket.Conn, user *models.User, roomID string, session RoomSession) *WebSocketClient {
	return &WebSocketClient{
		user:    user,
		roomID:  roomID,
		conn:    conn,
		session: session,
		send:    make(chan []byte, config.SendBufferSize),
		state:   StateAdmitted,
	}
}

func (c *WebSocketClient) GetUserID() string     { return c.user.ID }
func (c *WebSocketClient) GetRoomID() string     { return c.roomID }
func (c *WebSocketClient) GetUser() *models.User { return c.user }

func (c *WebSocketClient) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		log.Printf("WARN: send buffer full, dropping frame user=%s room=%s", c.user.ID, c.roomID)
		return false
	}
}

// Run starts the pumps. ctx must outlive the HTTP handler.
func (c *WebSocketClient) Run(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateAdmitted {
		c.mu.Unlock()
		return
	}
	c.state = StateActive
	c.mu.Unlock()

	go c.writePump()
	go c.readPump(ctx)
}

// Close deregisters from the session before the send channel is closed,
// so no broadcast can race with the close.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		c.session.Disconnect(c)

		c.mu.Lock()
		c.state = StateClosed
		close(c.send)
		c.mu.Unlock()
	})
}

func (c *WebSocketClient) readPump(ctx context.Context) {
	defer func() {
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("WARN: socket read failed user=%s room=%s: %v", c.user.ID, c.roomID, err)
			}
			return
		}
		c.session.HandleMessage(ctx, c, message)
	}
}

// writePump writes queued frames and pings. A frame per message: clients
// parse each text frame as one JSON document.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
