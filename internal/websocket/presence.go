package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// PresenceTracker reference-counts live connections per user. A user goes
// online with their first connection and offline only when the last one
// closes, so a second device never flickers the status.
type PresenceTracker struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		counts: make(map[uuid.UUID]int),
	}
}

// Connect registers a connection and reports whether it is the user's first.
func (t *PresenceTracker) Connect(userId uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[userId]++
	return t.counts[userId] == 1
}

// Disconnect releases a connection and reports whether it was the user's last.
func (t *PresenceTracker) Disconnect(userId uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.counts[userId]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(t.counts, userId)
		return true
	}
	t.counts[userId] = n - 1
	return false
}

func (t *PresenceTracker) IsOnline(userId uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[userId] > 0
}
