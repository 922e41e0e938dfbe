package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type heartbeatRequest struct {
	VisitorID string `json:"visitorId"`
}

// Heartbeat marks the caller online. The visitor is the authenticated
// user, else the posted visitorId, else the client IP.
func (h *Handler) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	_ = c.ShouldBindJSON(&req)

	visitorID, authenticated := req.VisitorID, false
	if user := currentUser(c); user != nil {
		visitorID, authenticated = user.ID, true
	}
	if visitorID == "" {
		visitorID = c.ClientIP()
	}

	if err := h.Presence.Heartbeat(c.Request.Context(), visitorID, authenticated); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Online returns the approximate online count.
func (h *Handler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, h.Presence.OnlineCount(c.Request.Context()))
}
