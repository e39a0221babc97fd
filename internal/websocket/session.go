package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// Session is the per-connection state: the authenticated user and the single
// conversation the connection is currently viewing.
type Session struct {
	ConnId             uuid.UUID
	UserId             uuid.UUID
	DisplayName        string
	ActiveConversation *uuid.UUID
}

// Registry maps connection ids to sessions. One entry per live connection;
// several entries may share a user id (multi-device).
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ConnId] = s
}

func (r *Registry) Unregister(connId uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connId)
}

// Get returns a copy of the session so callers cannot race on its fields.
func (r *Registry) Get(connId uuid.UUID) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connId]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

func (r *Registry) SetActiveConversation(connId, conversationId uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connId]; ok {
		id := conversationId
		s.ActiveConversation = &id
	}
}

func (r *Registry) ClearActiveConversation(connId uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connId]; ok {
		s.ActiveConversation = nil
	}
}

// ConnectionsForUser counts the user's live connections.
func (r *Registry) ConnectionsForUser(userId uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.sessions {
		if s.UserId == userId {
			n++
		}
	}
	return n
}
