package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"unibuddy/backend/internal/api/handler"
	"unibuddy/backend/internal/auth"
	"unibuddy/backend/internal/chathub"
	"unibuddy/backend/internal/config"
	"unibuddy/backend/internal/presence"
	"unibuddy/backend/internal/storage"
	"unibuddy/backend/internal/videohub"
	"unibuddy/backend/internal/videoroom"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// openStorage connects PostgreSQL when a DSN is configured and falls back to
// the in-memory store otherwise.
func openStorage(cfg config.Config) storage.Storage {
	if cfg.DatabaseDSN == "" {
		log.Println("WARN: DATABASE_DSN not set, using in-memory storage")
		return storage.NewMemoryStore()
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}
	s := storage.NewStorageService(db)
	if err := s.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database connection established, migrations complete.")
	return s
}

func openPresenceStore(ctx context.Context, cfg config.Config) presence.Store {
	if cfg.PresenceBackend != config.PresenceBackendRedis {
		return presence.NewMemoryStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}
	log.Printf("Presence backed by Redis at %s", cfg.RedisAddr)
	return presence.NewRedisStore(rdb)
}

func main() {
	log.Println("Starting UniBuddy backend...")
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := openStorage(cfg)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	chats := chathub.NewManagerService(s)
	matcher := chathub.NewMatcherService(s)
	rooms := videoroom.NewService(s, videoroom.NewRoomCodeGenerator())
	video := videohub.NewRegistry(rooms)
	counter := presence.NewCounter(openPresenceStore(ctx, cfg), matcher, chats)

	go matcher.Run(ctx)
	go counter.Run(ctx)

	h := handler.NewHandler(auth.NewResolver(tokens, s), chats, matcher, rooms, video, counter, cfg.FrontendURL, cfg.AllowedOrigins)

	// No WriteTimeout: it would cut long-lived sockets.
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(h, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
