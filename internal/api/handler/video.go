package handler

import (
	"net/http"

	"unibuddy/backend/internal/models"
	"unibuddy/backend/internal/videoroom"

	"github.com/gin-gonic/gin"
)

type createVideoRoomRequest struct {
	Name            string                    `json:"name"`
	Password        string                    `json:"password"`
	MaxParticipants int                       `json:"maxParticipants"`
	Settings        *models.VideoRoomSettings `json:"settings"`
}

type joinVideoRoomRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

// videoRoomView is a room as its viewer sees it. The password hash never
// leaves the server.
type videoRoomView struct {
	*models.VideoRoom
	HasPassword   bool `json:"hasPassword"`
	IsHost        bool `json:"isHost"`
	IsParticipant bool `json:"isParticipant"`
}

func newVideoRoomView(room *models.VideoRoom, viewerID string) videoRoomView {
	return videoRoomView{
		VideoRoom:     room,
		HasPassword:   room.HasPassword(),
		IsHost:        room.IsHost(viewerID),
		IsParticipant: room.HasParticipant(viewerID),
	}
}

func (h *Handler) inviteLink(code string) string {
	return h.FrontendURL + "/room/" + code
}

// CreateVideoRoom creates a room hosted by the current user.
func (h *Handler) CreateVideoRoom(c *gin.Context) {
	var req createVideoRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	user := currentUser(c)
	room, err := h.Rooms.Create(c.Request.Context(), user.ID, videoroom.CreateParams{
		Name:            req.Name,
		Password:        req.Password,
		MaxParticipants: req.MaxParticipants,
		Settings:        req.Settings,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room":       newVideoRoomView(room, user.ID),
		"inviteLink": h.inviteLink(room.Code),
		"code":       room.Code,
	})
}

// ListVideoRooms lists the active rooms the user hosts or joined.
func (h *Handler) ListVideoRooms(c *gin.Context) {
	user := currentUser(c)
	rooms, err := h.Rooms.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]videoRoomView, len(rooms))
	for i := range rooms {
		views[i] = newVideoRoomView(&rooms[i], user.ID)
	}
	c.JSON(http.StatusOK, gin.H{"rooms": views})
}

// JoinVideoRoom adds the user to a room by code.
func (h *Handler) JoinVideoRoom(c *gin.Context) {
	var req joinVideoRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	user := currentUser(c)
	room, err := h.Rooms.Join(c.Request.Context(), req.Code, user.ID, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": newVideoRoomView(room, user.ID)})
}

// GetVideoRoom returns an active room.
func (h *Handler) GetVideoRoom(c *gin.Context) {
	user := currentUser(c)
	room, err := h.Rooms.ActiveRoom(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": newVideoRoomView(room, user.ID), "inviteLink": h.inviteLink(room.Code)})
}

// LeaveVideoRoom leaves the room, ending it when the host leaves.
func (h *Handler) LeaveVideoRoom(c *gin.Context) {
	ended, err := h.Video.LeaveRoom(c.Request.Context(), c.Param("code"), currentUser(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if ended {
		c.JSON(http.StatusOK, gin.H{"message": "Room ended"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left room"})
}

// SaveMediaState merges the posted flags into the stored media state.
func (h *Handler) SaveMediaState(c *gin.Context) {
	var patch models.MediaStatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	state, err := h.Rooms.UpdateMediaState(c.Request.Context(), c.Param("code"), currentUser(c).ID, patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "state": state})
}

// GetMediaState returns the stored media state, all off when never saved.
func (h *Handler) GetMediaState(c *gin.Context) {
	state, err := h.Rooms.MediaState(c.Request.Context(), c.Param("code"), currentUser(c).ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
