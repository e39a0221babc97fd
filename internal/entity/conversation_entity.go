package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID
	Title     *string
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCustomTitle reports whether the creator named the conversation explicitly.
// Untitled conversations get a display title derived from participant names.
func (c *Conversation) IsCustomTitle() bool {
	return c.Title != nil && *c.Title != ""
}

type Participant struct {
	ConversationId    uuid.UUID
	UserId            uuid.UUID
	JoinedAt          time.Time
	IsAdmin           bool
	LastReadMessageId *uuid.UUID

	// User is the participant's user snapshot when the query preloads it.
	User *User
}
