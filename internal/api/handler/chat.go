package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChatMessages returns the room's history.
func (h *Handler) ChatMessages(c *gin.Context) {
	messages, err := h.Chats.History(c.Request.Context(), c.Param("roomId"), currentUser(c).ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// EndChat ends the chat for both members.
func (h *Handler) EndChat(c *gin.Context) {
	if err := h.Chats.EndChat(c.Request.Context(), c.Param("roomId"), currentUser(c).ID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat ended"})
}
