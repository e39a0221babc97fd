package websocket

import (
	"context"
	"encoding/json"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Error messages surfaced to the initiating connection. Store error text is
// never forwarded to clients.
const (
	errNotAMember     = "NOT_A_MEMBER"
	errMalformedEvent = "MALFORMED_EVENT"
	errInternal       = "Something went wrong, please try again"
)

// Store is the durable-store surface the hub depends on. Implemented by
// service.ChatStoreService in production and by a fake in tests.
type Store interface {
	GetUserByID(ctx context.Context, userId uuid.UUID) (*entity.User, error)
	IsUserInConversation(ctx context.Context, conversationId, userId uuid.UUID) (bool, error)
	CreateMessage(ctx context.Context, conversationId, authorId uuid.UUID, content string) (*entity.Message, error)
	GetMessagesForConversation(ctx context.Context, conversationId uuid.UUID, limit, offset int) ([]*entity.Message, error)
	GetLastReadMessage(ctx context.Context, conversationId, userId uuid.UUID) (*entity.Message, error)
	UpdateLastReadMessage(ctx context.Context, conversationId, userId, messageId uuid.UUID) (*entity.Message, error)
	GetParticipantsForConversation(ctx context.Context, conversationId uuid.UUID) ([]*entity.Participant, error)
	GetUnreadCounts(ctx context.Context, conversationId uuid.UUID, userIds []uuid.UUID) (map[uuid.UUID]int64, error)
	UpdateUserStatus(ctx context.Context, userId uuid.UUID, status entity.UserStatus) error
}

// DomainPublisher receives domain events the hub emits after persistence
// succeeds. Optional; a nil publisher disables emission.
type DomainPublisher interface {
	PublishMessageCreated(ctx context.Context, message *entity.Message)
}

// Hub orchestrates authentication, membership validation, persistence calls
// and fan-out for all live connections.
type Hub struct {
	store     Store
	registry  *Registry
	rooms     *Broadcaster
	presence  *PresenceTracker
	publisher DomainPublisher
	pageSize  int
	logger    logger.ILogger
}

func NewHub(store Store, publisher DomainPublisher, historyPageSize int, log logger.ILogger) *Hub {
	if historyPageSize <= 0 {
		historyPageSize = 50
	}
	return &Hub{
		store:     store,
		registry:  NewRegistry(),
		rooms:     NewBroadcaster(log),
		presence:  NewPresenceTracker(),
		publisher: publisher,
		pageSize:  historyPageSize,
		logger:    log,
	}
}

// Registry exposes the session registry, primarily for handlers and tests.
func (h *Hub) Registry() *Registry { return h.registry }

// Rooms exposes the broadcast group table, primarily for tests.
func (h *Hub) Rooms() *Broadcaster { return h.rooms }

// Presence exposes the presence tracker.
func (h *Hub) Presence() *PresenceTracker { return h.presence }

// Register wires an authenticated connection into the hub: session record,
// presence, the user notification group, and only then the authenticated ack.
// A client that immediately joins a conversation therefore cannot race ahead
// of its own presence state.
func (h *Hub) Register(c *Client, user *entity.User) {
	h.registry.Register(&Session{
		ConnId:      c.Id,
		UserId:      user.Id,
		DisplayName: user.DisplayName,
	})

	first := h.presence.Connect(user.Id)
	h.rooms.Join(c, UserGroup(user.Id))

	if first {
		if err := h.store.UpdateUserStatus(context.Background(), user.Id, entity.UserStatusOnline); err != nil {
			h.logger.Error("Hub", "Failed to persist online status", map[string]interface{}{
				"user_id": user.Id, "error": err.Error(),
			})
		}
	}

	h.sendEvent(c, EventAuthenticated, authenticatedPayload{Success: true, UserId: user.Id})

	h.logger.Info("Hub", "Connection registered", map[string]interface{}{
		"conn_id": c.Id, "user_id": user.Id,
	})
}

// Dispatch decodes one inbound frame and runs the matching handler. Called
// from the connection's read pump, so per-connection handling is serialized.
func (h *Hub) Dispatch(c *Client, raw []byte) {
	session, ok := h.registry.Get(c.Id)
	if !ok {
		// Registration precedes the read pump; a missing session means the
		// connection is already tearing down.
		return
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(c, errMalformedEvent)
		return
	}

	switch env.Event {
	case EventJoinConversation:
		var p joinConversationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationId == uuid.Nil {
			h.sendError(c, errMalformedEvent)
			return
		}
		h.handleJoinConversation(c, session, p.ConversationId)

	case EventSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationId == uuid.Nil || p.Content == "" {
			h.sendError(c, errMalformedEvent)
			return
		}
		h.handleSendMessage(c, session, p.ConversationId, p.Content)

	case EventTyping:
		var p typingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationId == uuid.Nil {
			h.sendError(c, errMalformedEvent)
			return
		}
		h.handleTyping(c, session, p.ConversationId, p.IsTyping)

	case EventMessageRead:
		var p messageReadPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationId == uuid.Nil || p.MessageId == uuid.Nil {
			h.sendError(c, errMalformedEvent)
			return
		}
		h.handleMessageRead(c, session, p.ConversationId, p.MessageId)

	case EventLeaveConversation:
		var p leaveConversationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationId == uuid.Nil {
			h.sendError(c, errMalformedEvent)
			return
		}
		h.handleLeaveConversation(c, session, p.ConversationId)

	default:
		h.sendError(c, errMalformedEvent)
	}
}

func (h *Hub) handleJoinConversation(c *Client, session Session, conversationId uuid.UUID) {
	ctx := context.Background()

	if !h.requireMembership(c, conversationId, session.UserId) {
		return
	}

	// Rejoining the current conversation is just a history refresh; no
	// membership churn and no join/leave broadcasts.
	sameRoom := session.ActiveConversation != nil && *session.ActiveConversation == conversationId

	if session.ActiveConversation != nil && !sameRoom {
		h.leaveConversationGroup(c, session, *session.ActiveConversation)
	}

	if !sameRoom {
		h.rooms.Join(c, ConversationGroup(conversationId))
		h.registry.SetActiveConversation(c.Id, conversationId)

		joined, err := encodeEvent(EventUserJoinedConversation, userJoinedPayload{
			UserId:         session.UserId,
			UserName:       session.DisplayName,
			ConversationId: conversationId,
		})
		if err == nil {
			h.rooms.BroadcastToOthers(c, ConversationGroup(conversationId), joined)
		}
	}

	messages, err := h.store.GetMessagesForConversation(ctx, conversationId, h.pageSize, 0)
	if err != nil {
		h.logStoreFailure("join_conversation", conversationId, session.UserId, err)
		h.sendError(c, errInternal)
		return
	}
	// The store returns newest first; deliver chronologically.
	reverseMessages(messages)

	lastRead, err := h.store.GetLastReadMessage(ctx, conversationId, session.UserId)
	if err != nil {
		h.logStoreFailure("join_conversation", conversationId, session.UserId, err)
		h.sendError(c, errInternal)
		return
	}

	h.sendEvent(c, EventConversationHistory, conversationHistoryPayload{
		ConversationId:  conversationId,
		Messages:        dto.NewMessagePayloads(messages),
		LastReadMessage: dto.NewMessagePayload(lastRead),
	})
}

func (h *Hub) handleSendMessage(c *Client, session Session, conversationId uuid.UUID, content string) {
	ctx := context.Background()

	if !h.requireMembership(c, conversationId, session.UserId) {
		return
	}

	message, err := h.store.CreateMessage(ctx, conversationId, session.UserId, content)
	if err != nil {
		h.logStoreFailure("send_message", conversationId, session.UserId, err)
		h.sendError(c, errInternal)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishMessageCreated(ctx, message)
	}

	// Broadcast only after persistence succeeded, to everyone viewing the
	// conversation, sender included (clients reconcile optimistic UI off the
	// echo).
	h.NotifyNewMessage(ctx, conversationId, message)
}

// NotifyNewMessage fans out a message persisted outside the socket path (the
// REST send endpoint) exactly like a socket-originated one: new_message to the
// conversation group, then fresh meta to every participant.
func (h *Hub) NotifyNewMessage(ctx context.Context, conversationId uuid.UUID, message *entity.Message) {
	payload := dto.NewMessagePayload(message)

	data, err := encodeEvent(EventNewMessage, newMessagePayload{
		ConversationId: conversationId,
		Message:        payload,
	})
	if err == nil {
		h.rooms.BroadcastToAll(ConversationGroup(conversationId), data)
	}

	h.pushConversationMeta(ctx, conversationId, message.AuthorId, payload)
}

// pushConversationMeta recomputes unread counts for every participant in one
// batched query and pushes each participant their own count on their
// notification group. The sender is always reported as caught up.
func (h *Hub) pushConversationMeta(ctx context.Context, conversationId, senderId uuid.UUID, lastMessage *dto.MessagePayload) {
	participants, err := h.store.GetParticipantsForConversation(ctx, conversationId)
	if err != nil {
		h.logStoreFailure("conversation_meta", conversationId, senderId, err)
		return
	}

	userIds := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		userIds[i] = p.UserId
	}

	counts, err := h.store.GetUnreadCounts(ctx, conversationId, userIds)
	if err != nil {
		h.logStoreFailure("conversation_meta", conversationId, senderId, err)
		return
	}

	for _, p := range participants {
		unread := counts[p.UserId]
		if p.UserId == senderId {
			unread = 0
		}

		data, err := encodeEvent(EventConversationMetaUpdated, conversationMetaPayload{
			ConversationId: conversationId,
			LastMessage:    lastMessage,
			UnreadCount:    unread,
		})
		if err != nil {
			continue
		}
		h.rooms.BroadcastToAll(UserGroup(p.UserId), data)
	}
}

func (h *Hub) handleTyping(c *Client, session Session, conversationId uuid.UUID, isTyping bool) {
	member, err := h.store.IsUserInConversation(context.Background(), conversationId, session.UserId)
	if err != nil {
		// Typing is best effort: never alarm the sender over a store hiccup.
		h.logStoreFailure("typing", conversationId, session.UserId, err)
		return
	}
	if !member {
		h.sendError(c, errNotAMember)
		return
	}

	data, err := encodeEvent(EventUserTyping, userTypingPayload{
		ConversationId: conversationId,
		UserId:         session.UserId,
		UserName:       session.DisplayName,
		IsTyping:       isTyping,
	})
	if err != nil {
		return
	}
	h.rooms.BroadcastToOthers(c, ConversationGroup(conversationId), data)
}

func (h *Hub) handleMessageRead(c *Client, session Session, conversationId, messageId uuid.UUID) {
	ctx := context.Background()

	if !h.requireMembership(c, conversationId, session.UserId) {
		return
	}

	resolved, err := h.store.UpdateLastReadMessage(ctx, conversationId, session.UserId, messageId)
	if err != nil {
		h.logStoreFailure("message_read", conversationId, session.UserId, err)
		h.sendError(c, errInternal)
		return
	}

	resolvedPayload := dto.NewMessagePayload(resolved)

	h.sendEvent(c, EventMessageReadUpdated, messageReadUpdatedPayload{
		LastReadMessage: resolvedPayload,
	})

	// Other members learn only the id, never the content.
	data, err := encodeEvent(EventUserReadMessage, userReadMessagePayload{
		ConversationId: conversationId,
		MessageId:      messageId,
		UserId:         session.UserId,
	})
	if err == nil {
		h.rooms.BroadcastToOthers(c, ConversationGroup(conversationId), data)
	}

	// Marking read only changes the caller's own unread state.
	meta, err := encodeEvent(EventConversationMetaUpdated, conversationMetaPayload{
		ConversationId: conversationId,
		LastMessage:    resolvedPayload,
		UnreadCount:    0,
	})
	if err == nil {
		h.rooms.BroadcastToAll(UserGroup(session.UserId), meta)
	}
}

func (h *Hub) handleLeaveConversation(c *Client, session Session, conversationId uuid.UUID) {
	// Leaving a conversation the connection is not viewing is a no-op.
	if session.ActiveConversation == nil || *session.ActiveConversation != conversationId {
		return
	}

	if !h.requireMembership(c, conversationId, session.UserId) {
		return
	}

	h.leaveConversationGroup(c, session, conversationId)
}

// leaveConversationGroup removes the connection from the conversation group,
// clears the active conversation, and tells the remaining members.
func (h *Hub) leaveConversationGroup(c *Client, session Session, conversationId uuid.UUID) {
	h.rooms.Leave(c, ConversationGroup(conversationId))
	h.registry.ClearActiveConversation(c.Id)

	data, err := encodeEvent(EventUserLeftConversation, userLeftPayload{
		UserId:         session.UserId,
		UserName:       session.DisplayName,
		ConversationId: conversationId,
	})
	if err == nil {
		h.rooms.BroadcastToAll(ConversationGroup(conversationId), data)
	}
}

// HandleDisconnect releases everything the connection held: active
// conversation, group memberships, session record, and — for the user's last
// connection — flips presence to offline. Runs even when an operation was in
// flight when the socket dropped.
func (h *Hub) HandleDisconnect(c *Client) {
	session, ok := h.registry.Get(c.Id)
	if !ok {
		return
	}

	if session.ActiveConversation != nil {
		h.leaveConversationGroup(c, session, *session.ActiveConversation)
	}

	h.rooms.LeaveAll(c)
	h.registry.Unregister(c.Id)

	if h.presence.Disconnect(session.UserId) {
		if err := h.store.UpdateUserStatus(context.Background(), session.UserId, entity.UserStatusOffline); err != nil {
			h.logger.Error("Hub", "Failed to persist offline status", map[string]interface{}{
				"user_id": session.UserId, "error": err.Error(),
			})
		}
	}

	h.logger.Info("Hub", "Connection released", map[string]interface{}{
		"conn_id": c.Id, "user_id": session.UserId,
	})
}

// requireMembership validates participation and emits NOT_A_MEMBER on
// violation. Store failures surface as a generic error to the caller only.
func (h *Hub) requireMembership(c *Client, conversationId, userId uuid.UUID) bool {
	member, err := h.store.IsUserInConversation(context.Background(), conversationId, userId)
	if err != nil {
		h.logStoreFailure("membership_check", conversationId, userId, err)
		h.sendError(c, errInternal)
		return false
	}
	if !member {
		h.sendError(c, errNotAMember)
		return false
	}
	return true
}

func (h *Hub) sendEvent(c *Client, event string, payload interface{}) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode event", map[string]interface{}{
			"event": event, "error": err.Error(),
		})
		return
	}
	if !c.trySend(data) {
		h.logger.Warn("Hub", "Client send buffer full, dropping event", map[string]interface{}{
			"conn_id": c.Id, "event": event,
		})
	}
}

func (h *Hub) sendError(c *Client, message string) {
	h.sendEvent(c, EventError, errorPayload{Message: message})
}

func (h *Hub) logStoreFailure(operation string, conversationId, userId uuid.UUID, err error) {
	h.logger.Error("Hub", "Store operation failed", map[string]interface{}{
		"operation":       operation,
		"conversation_id": conversationId,
		"user_id":         userId,
		"error":           err.Error(),
	})
}

func reverseMessages(messages []*entity.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
