package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FindMatch is one matchmaking poll for the current user.
func (h *Handler) FindMatch(c *gin.Context) {
	user := currentUser(c)
	res, err := h.Matcher.FindMatch(c.Request.Context(), user.ID, user.Region, user.Campus)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelMatch leaves the queue.
func (h *Handler) CancelMatch(c *gin.Context) {
	h.Matcher.Cancel(currentUser(c).ID)
	c.JSON(http.StatusOK, gin.H{"message": "Matching cancelled"})
}
