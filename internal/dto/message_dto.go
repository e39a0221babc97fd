package dto

import (
	"time"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

// AuthorPayload is the author block of the wire-level message shape.
type AuthorPayload struct {
	Id          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
}

// MessagePayload is the message shape shared by the socket protocol and the
// REST history endpoints.
type MessagePayload struct {
	Id        uuid.UUID     `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Content   string        `json:"content"`
	Author    AuthorPayload `json:"author"`
	EditedAt  *time.Time    `json:"editedAt,omitempty"`
}

func NewMessagePayload(m *entity.Message) *MessagePayload {
	if m == nil {
		return nil
	}

	return &MessagePayload{
		Id:        m.Id,
		Timestamp: m.CreatedAt,
		Content:   m.Content,
		Author: AuthorPayload{
			Id:          m.AuthorId,
			DisplayName: m.AuthorName,
		},
		EditedAt: m.EditedAt,
	}
}

func NewMessagePayloads(msgs []*entity.Message) []*MessagePayload {
	out := make([]*MessagePayload, len(msgs))
	for i, m := range msgs {
		out[i] = NewMessagePayload(m)
	}
	return out
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type GetMessagesResponse struct {
	ConversationId uuid.UUID         `json:"conversation_id"`
	Messages       []*MessagePayload `json:"messages"`
	Limit          int               `json:"limit"`
	Offset         int               `json:"offset"`
}
