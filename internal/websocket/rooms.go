package websocket

import (
	"sync"

	"realtime-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// UserGroup is the notification group key: every live connection of a user.
func UserGroup(userId uuid.UUID) string {
	return "user:" + userId.String()
}

// ConversationGroup is the viewing group key: connections currently inside a
// conversation.
func ConversationGroup(conversationId uuid.UUID) string {
	return "conversation:" + conversationId.String()
}

// Broadcaster is the group membership table: group key -> set of clients.
// It is the only mutable state shared across connections; join/leave mutate it
// and broadcasts read an atomic snapshot.
type Broadcaster struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	logger logger.ILogger
}

func NewBroadcaster(log logger.ILogger) *Broadcaster {
	return &Broadcaster{
		groups: make(map[string]map[*Client]struct{}),
		logger: log,
	}
}

func (b *Broadcaster) Join(c *Client, group string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		b.groups[group] = members
	}
	members[c] = struct{}{}
}

// Leave is safe to call for a client that never joined the group.
func (b *Broadcaster) Leave(c *Client, group string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.groups[group]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(b.groups, group)
	}
}

// LeaveAll removes the client from every group it is a member of.
func (b *Broadcaster) LeaveAll(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for group, members := range b.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(b.groups, group)
		}
	}
}

// IsMember reports current membership, primarily for tests and diagnostics.
func (b *Broadcaster) IsMember(c *Client, group string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	members, ok := b.groups[group]
	if !ok {
		return false
	}
	_, in := members[c]
	return in
}

func (b *Broadcaster) members(group string) []*Client {
	b.mu.RLock()
	defer b.mu.RUnlock()

	members := b.groups[group]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// BroadcastToAll delivers to every member of the group, originator included.
func (b *Broadcaster) BroadcastToAll(group string, data []byte) {
	for _, c := range b.members(group) {
		b.deliver(c, data)
	}
}

// BroadcastToOthers delivers to every member of the group except origin.
func (b *Broadcaster) BroadcastToOthers(origin *Client, group string, data []byte) {
	for _, c := range b.members(group) {
		if c == origin {
			continue
		}
		b.deliver(c, data)
	}
}

func (b *Broadcaster) deliver(c *Client, data []byte) {
	if !c.trySend(data) {
		// Slow consumer: the event is dropped, the read pump will tear the
		// connection down once the peer stops responding to pings.
		b.logger.Warn("Broadcaster", "Client send buffer full, dropping event", map[string]interface{}{
			"conn_id": c.Id,
		})
	}
}
