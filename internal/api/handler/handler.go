package handler

import (
	"net/http"
	"time"

	"unibuddy/backend/internal/auth"
	"unibuddy/backend/internal/chathub"
	"unibuddy/backend/internal/presence"
	"unibuddy/backend/internal/videohub"
	"unibuddy/backend/internal/videoroom"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

var timeNow = time.Now

// Handler holds the services behind the REST and socket endpoints.
type Handler struct {
	Auth        *auth.Resolver
	Chats       *chathub.ManagerService
	Matcher     *chathub.MatcherService
	Rooms       *videoroom.Service
	Video       *videohub.Registry
	Presence    *presence.Counter
	FrontendURL string

	upgrader websocket.Upgrader
}

func NewHandler(resolver *auth.Resolver, chats *chathub.ManagerService, matcher *chathub.MatcherService,
	rooms *videoroom.Service, video *videohub.Registry, counter *presence.Counter, frontendURL string, allowedOrigins []string) *Handler {
	return &Handler{
		Auth:        resolver,
		Chats:       chats,
		Matcher:     matcher,
		Rooms:       rooms,
		Video:       video,
		Presence:    counter,
		FrontendURL: frontendURL,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// NewRouter registers every route on a gin engine and wraps it with CORS.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", h.Health)

	api.POST("/stats/heartbeat", h.OptionalAuth(), h.Heartbeat)
	api.GET("/stats/online", h.Online)

	// Sockets authenticate from the query string after the upgrade.
	api.GET("/ws/:roomId", h.ServeWebSocket)

	authed := api.Group("", h.RequireAuth())
	authed.POST("/match/find", h.FindMatch)
	authed.DELETE("/match/cancel", h.CancelMatch)

	authed.GET("/chat/:roomId/messages", h.ChatMessages)
	authed.POST("/chat/:roomId/end", h.EndChat)

	authed.POST("/video-rooms", h.CreateVideoRoom)
	authed.GET("/video-rooms", h.ListVideoRooms)
	authed.POST("/video-rooms/join", h.JoinVideoRoom)
	authed.GET("/video-rooms/:code", h.GetVideoRoom)
	authed.POST("/video-rooms/:code/leave", h.LeaveVideoRoom)
	authed.POST("/video-rooms/:code/media-state", h.SaveMediaState)
	authed.GET("/video-rooms/:code/media-state", h.GetMediaState)

	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": timeNow().UTC()})
}

// originChecker allows sockets from the configured origins, and from
// non-browser clients that send no Origin header.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
