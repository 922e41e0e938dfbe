package chathub

import (
	"context"
	"log"
	"sync"
	"time"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/config"
	"unibuddy/backend/internal/models"
	"unibuddy/backend/internal/storage"

	"github.com/google/uuid"
)

// MatcherService pairs users polling for a chat partner in the same region
// and campus. The queue is process-local.
type MatcherService struct {
	Storage storage.ChatStore

	// mu serializes every find/cancel, including the room insert, so a
	// waiter can never be consumed twice.
	mu    sync.Mutex
	queue map[string]models.MatchQueueEntry

	now       func() time.Time
	newRoomID func() string
}

func NewMatcherService(s storage.ChatStore) *MatcherService {
	return &MatcherService{
		Storage:   s,
		queue:     make(map[string]models.MatchQueueEntry),
		now:       time.Now,
		newRoomID: func() string { return uuid.New().String() },
	}
}

// FindMatch is one poll. It returns the user's active room if there is one,
// pairs them with the oldest compatible waiter, or leaves them waiting.
func (m *MatcherService) FindMatch(ctx context.Context, userID, region, campus string) (models.MatchResult, error) {
	if region == "" || campus == "" {
		return models.MatchResult{}, apperr.ErrProfileIncomplete
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	activeRoomID, err := m.Storage.GetActiveRoomIDForUser(ctx, userID)
	if err != nil {
		return models.MatchResult{}, err
	}
	if activeRoomID != "" {
		return models.MatchResult{Status: models.MatchStatusMatched, RoomID: activeRoomID}, nil
	}

	now := m.now()
	self := models.MatchQueueEntry{UserID: userID, Region: region, Campus: campus, EnqueuedAt: now, LastPolledAt: now}

	partner, found := m.oldestCandidate(self)
	if !found {
		if prev, ok := m.queue[userID]; ok {
			self.EnqueuedAt = prev.EnqueuedAt
		}
		m.queue[userID] = self
		return models.MatchResult{Status: models.MatchStatusWaiting}, nil
	}

	prevSelf, hadSelf := m.queue[userID]
	delete(m.queue, partner.UserID)
	delete(m.queue, userID)

	room := &models.ChatRoom{
		RoomID:    m.newRoomID(),
		User1ID:   partner.UserID,
		User2ID:   userID,
		IsActive:  true,
		StartedAt: now.UTC(),
	}
	if err := m.Storage.SaveRoom(ctx, room); err != nil {
		m.queue[partner.UserID] = partner
		if hadSelf {
			m.queue[userID] = prevSelf
		}
		log.Printf("ERROR: failed to create chat room for %s and %s: %v", partner.UserID, userID, err)
		return models.MatchResult{}, err
	}

	log.Printf("INFO: match found room=%s users=%s,%s", room.RoomID, partner.UserID, userID)
	return models.MatchResult{Status: models.MatchStatusMatched, RoomID: room.RoomID}, nil
}

// oldestCandidate must be called with mu held.
func (m *MatcherService) oldestCandidate(self models.MatchQueueEntry) (models.MatchQueueEntry, bool) {
	var best models.MatchQueueEntry
	found := false
	for id, e := range m.queue {
		if id == self.UserID || !e.SameScope(self) {
			continue
		}
		if !found || e.EnqueuedAt.Before(best.EnqueuedAt) ||
			(e.EnqueuedAt.Equal(best.EnqueuedAt) && e.UserID < best.UserID) {
			best, found = e, true
		}
	}
	return best, found
}

// Cancel removes the user's queue entry. Cancelling twice is harmless.
func (m *MatcherService) Cancel(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queue, userID)
}

// QueueLength returns how many users are waiting.
func (m *MatcherService) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Run drops entries that stopped polling until ctx is done.
func (m *MatcherService) Run(ctx context.Context) {
	log.Println("INFO: Matcher sweeper started.")
	ticker := time.NewTicker(config.QueueSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.sweep(m.now()); n > 0 {
				log.Printf("INFO: dropped %d stale queue entries", n)
			}
		}
	}
}

func (m *MatcherService) sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-config.QueueEntryTTL)
	n := 0
	for id, e := range m.queue {
		if e.LastPolledAt.Before(cutoff) {
			delete(m.queue, id)
			n++
		}
	}
	return n
}
