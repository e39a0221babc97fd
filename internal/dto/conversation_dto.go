package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateConversationRequest struct {
	Title          *string     `json:"title" validate:"omitempty,max=255"`
	ParticipantIds []uuid.UUID `json:"participant_ids" validate:"required,min=1"`
}

type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type AddParticipantRequest struct {
	UserId uuid.UUID `json:"user_id" validate:"required"`
}

type ParticipantResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	IsAdmin     bool      `json:"is_admin"`
	JoinedAt    time.Time `json:"joined_at"`
}

type ConversationResponse struct {
	Id            uuid.UUID             `json:"id"`
	Title         string                `json:"title"`
	IsCustomTitle bool                  `json:"is_custom_title"`
	CreatedBy     uuid.UUID             `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
	Participants  []ParticipantResponse `json:"participants"`
	LastMessage   *MessagePayload       `json:"last_message,omitempty"`
	UnreadCount   int64                 `json:"unread_count"`
}
