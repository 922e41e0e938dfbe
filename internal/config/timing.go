package config

import "time"

const (
	// Presence
	HeartbeatStaleAfter   = 60 * time.Second
	PresenceSweepInterval = 30 * time.Second

	// Matchmaking
	QueueEntryTTL      = 2 * time.Minute
	QueueSweepInterval = 30 * time.Second

	// Socket liveness
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 64 * 1024
	SendBufferSize = 256

	// Video rooms
	RoomCodeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodeLength     = 8
	RoomCodeMaxRetries = 10
	BcryptCost         = 10
)
