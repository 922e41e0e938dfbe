package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"unibuddy/backend/internal/auth"
	"unibuddy/backend/internal/config"
	"unibuddy/backend/internal/storage"
	"unibuddy/backend/internal/videoroom"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  token <user_id>               issue an access token for an existing user
  end-chat <room_id> <user_id>  close a chat room on behalf of one member
  end-video <code>              end a video room regardless of host`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN is required for admin commands")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	s := storage.NewStorageService(db)
	ctx := context.Background()

	switch os.Args[1] {
	case "token":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin token <user_id>")
			os.Exit(1)
		}
		token, err := issueToken(ctx, s, auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL), os.Args[2])
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(token)
	case "end-chat":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin end-chat <room_id> <user_id>")
			os.Exit(1)
		}
		if err := s.CloseRoom(ctx, os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Error ending chat: %v", err)
		}
		fmt.Printf("Chat %s has been ended.\n", os.Args[2])
	case "end-video":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin end-video <code>")
			os.Exit(1)
		}
		rooms := videoroom.NewService(s, videoroom.NewRoomCodeGenerator())
		if err := rooms.ForceEnd(ctx, os.Args[2]); err != nil {
			log.Fatalf("Error ending video room: %v", err)
		}
		fmt.Printf("Video room %s has been ended.\n", videoroom.NormalizeCode(os.Args[2]))
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

// issueToken only signs tokens for users that exist, so a typo does not
// produce a token every request would reject.
func issueToken(ctx context.Context, users storage.UserStore, tokens *auth.TokenService, userID string) (string, error) {
	if _, err := users.GetUserByID(ctx, userID); err != nil {
		return "", err
	}
	return tokens.Issue(userID)
}
