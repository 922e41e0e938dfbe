// Package presence estimates how many people are online from heartbeats,
// live chat sockets and the matchmaking queue.
package presence

import (
	"context"
	"log"
	"time"

	"unibuddy/backend/internal/config"
)

// Store keeps the latest heartbeat per visitor.
type Store interface {
	// Touch records a heartbeat, replacing any earlier one for visitorID.
	Touch(ctx context.Context, visitorID string, authenticated bool, at time.Time) error
	// Sweep forgets heartbeats older than cutoff.
	Sweep(ctx context.Context, cutoff time.Time) error
	// Counts returns how many visitors have a remembered heartbeat, and how
	// many of those were authenticated.
	Counts(ctx context.Context) (visitors, authenticated int, err error)
}

// QueueSizer reports the matchmaking queue length.
type QueueSizer interface {
	QueueLength() int
}

// ConnectionCounter reports live chat sockets.
type ConnectionCounter interface {
	ConnectionCount() int
}

// Stats is the response of the online counter.
type Stats struct {
	Online   int `json:"online"`
	InQueue  int `json:"inQueue"`
	LoggedIn int `json:"loggedIn"`
	// Visitors counts every fresh heartbeat, anonymous ones included.
	Visitors int `json:"visitors"`
}

// Counter combines the three presence signals.
type Counter struct {
	store Store
	queue QueueSizer
	chats ConnectionCounter
	now   func() time.Time
}

func NewCounter(store Store, queue QueueSizer, chats ConnectionCounter) *Counter {
	return &Counter{store: store, queue: queue, chats: chats, now: time.Now}
}

// Heartbeat records that visitorID is online now.
func (c *Counter) Heartbeat(ctx context.Context, visitorID string, authenticated bool) error {
	return c.store.Touch(ctx, visitorID, authenticated, c.now())
}

// OnlineCount is an approximation: a logged-in user with an open chat is
// counted once by taking the larger of the two signals. A store failure
// only zeroes the heartbeat term.
func (c *Counter) OnlineCount(ctx context.Context) Stats {
	visitors, loggedIn, err := c.store.Counts(ctx)
	if err != nil {
		log.Printf("WARN: presence store unavailable, counting without heartbeats: %v", err)
		visitors, loggedIn = 0, 0
	}
	inQueue := c.queue.QueueLength()
	return Stats{
		Online:   max(loggedIn, c.chats.ConnectionCount()) + inQueue,
		InQueue:  inQueue,
		LoggedIn: loggedIn,
		Visitors: visitors,
	}
}

// Run sweeps stale heartbeats until ctx is done.
func (c *Counter) Run(ctx context.Context) {
	log.Println("INFO: Presence sweeper started.")
	ticker := time.NewTicker(config.PresenceSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Counter) sweep(ctx context.Context) {
	if err := c.store.Sweep(ctx, c.now().Add(-config.HeartbeatStaleAfter)); err != nil {
		log.Printf("WARN: presence sweep failed: %v", err)
	}
}
