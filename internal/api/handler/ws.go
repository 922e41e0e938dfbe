package handler

import (
	"context"
	"errors"
	"log"
	"time"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/chathub"
	"unibuddy/backend/internal/videoroom"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ServeWebSocket upgrades first and authenticates second, so a rejected
// browser socket sees a 1008 close with a reason instead of a failed
// handshake.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WARN: websocket upgrade failed: %v", err)
		return
	}

	roomID := c.Param("roomId")
	token := c.Query("token")
	if token == "" || roomID == "" {
		rejectSocket(conn, "Missing token or room ID")
		return
	}

	kind, err := chathub.ParseRoomKind(c.Query("type"))
	if err != nil {
		rejectSocket(conn, "Unknown room type")
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	user, err := h.Auth.Resolve(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidToken):
			rejectSocket(conn, "Invalid token")
		case errors.Is(err, apperr.ErrUnauthenticated):
			rejectSocket(conn, "User not found")
		default:
			log.Printf("ERROR: socket auth failed room=%s: %v", roomID, err)
			rejectSocket(conn, "Internal error")
		}
		return
	}

	var session chathub.RoomSession = h.Chats
	if kind == chathub.RoomKindVideo {
		session = h.Video
		roomID = videoroom.NormalizeCode(roomID)
	}

	client := chathub.NewWebSocketClient(conn, user, roomID, session)
	if err := session.Admit(ctx, roomID, client); err != nil {
		log.Printf("INFO: %s socket rejected room=%s user=%s: %v", kind, roomID, user.ID, err)
		rejectSocket(conn, "Not authorized")
		return
	}

	client.Run(ctx)
}

// rejectSocket closes conn with 1008 policy violation.
func rejectSocket(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		log.Printf("WARN: failed to send close frame: %v", err)
	}
	conn.Close()
}
