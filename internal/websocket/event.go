package websocket

import (
	"encoding/json"

	"realtime-chat-be/internal/dto"

	"github.com/google/uuid"
)

// Client -> hub events.
const (
	EventJoinConversation  = "join_conversation"
	EventSendMessage       = "send_message"
	EventTyping            = "typing"
	EventMessageRead       = "message_read"
	EventLeaveConversation = "leave_conversation"
)

// Hub -> client events.
const (
	EventAuthenticated           = "authenticated"
	EventConversationHistory     = "conversation_history"
	EventNewMessage              = "new_message"
	EventConversationMetaUpdated = "conversation_meta_updated"
	EventUserTyping              = "user_typing"
	EventUserJoinedConversation  = "user_joined_conversation"
	EventUserLeftConversation    = "user_left_conversation"
	EventMessageReadUpdated      = "message_read_updated"
	EventUserReadMessage         = "user_read_message"
	EventError                   = "error"
)

// Envelope is the wire frame for both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func encodeEvent(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Inbound payloads.

type joinConversationPayload struct {
	ConversationId uuid.UUID `json:"conversationId"`
}

type sendMessagePayload struct {
	ConversationId uuid.UUID `json:"conversationId"`
	Content        string    `json:"content"`
}

type typingPayload struct {
	ConversationId uuid.UUID `json:"conversationId"`
	IsTyping       bool      `json:"isTyping"`
}

type messageReadPayload struct {
	ConversationId uuid.UUID `json:"conversationId"`
	MessageId      uuid.UUID `json:"messageId"`
}

type leaveConversationPayload struct {
	ConversationId uuid.UUID `json:"conversationId"`
}

// Outbound payloads.

type authenticatedPayload struct {
	Success bool      `json:"success"`
	UserId  uuid.UUID `json:"userId"`
}

type conversationHistoryPayload struct {
	ConversationId  uuid.UUID             `json:"conversationId"`
	Messages        []*dto.MessagePayload `json:"messages"`
	LastReadMessage *dto.MessagePayload   `json:"lastReadMessage"`
}

type newMessagePayload struct {
	ConversationId uuid.UUID           `json:"conversationId"`
	Message        *dto.MessagePayload `json:"message"`
}

type conversationMetaPayload struct {
	ConversationId uuid.UUID           `json:"conversationId"`
	LastMessage    *dto.MessagePayload `json:"lastMessage"`
	UnreadCount    int64               `json:"unreadCount"`
}

type userTypingPayload struct {
	ConversationId uuid.UUID `json:"conversationId"`
	UserId         uuid.UUID `json:"userId"`
	UserName       string    `json:"userName"`
	IsTyping       bool      `json:"isTyping"`
}

type userJoinedPayload struct {
	UserId         uuid.UUID `json:"userId"`
	UserName       string    `json:"userName"`
	ConversationId uuid.UUID `json:"conversationId"`
}

type userLeftPayload struct {
	UserId         uuid.UUID `json:"userId"`
	UserName       string    `json:"userName,omitempty"`
	ConversationId uuid.UUID `json:"conversationId"`
}

type messageReadUpdatedPayload struct {
	LastReadMessage *dto.MessagePayload `json:"lastReadMessage"`
}

type userReadMessagePayload struct {
	ConversationId uuid.UUID `json:"conversationId"`
	MessageId      uuid.UUID `json:"messageId"`
	UserId         uuid.UUID `json:"userId"`
}

type errorPayload struct {
	Message string `json:"message"`
}
