package handler

import (
	"errors"
	"log"
	"net/http"

	"unibuddy/backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrPasswordRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Password required", "requiresPassword": true})
	case errors.Is(err, apperr.ErrInvalidPassword):
		respondError(c, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, apperr.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, apperr.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, apperr.ErrNotAuthorized):
		respondError(c, http.StatusForbidden, "Not authorized")
	case errors.Is(err, apperr.ErrRoomNotFound):
		respondError(c, http.StatusNotFound, "Room not found")
	case errors.Is(err, apperr.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, apperr.ErrRoomFull):
		respondError(c, http.StatusBadRequest, "Room is full")
	case errors.Is(err, apperr.ErrProfileIncomplete):
		respondError(c, http.StatusBadRequest, "Please set your region and campus first")
	case errors.Is(err, apperr.ErrRoomNameRequired):
		respondError(c, http.StatusBadRequest, "Room name is required")
	case errors.Is(err, apperr.ErrRoomCodeRequired):
		respondError(c, http.StatusBadRequest, "Room code is required")
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrInvalidState):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
