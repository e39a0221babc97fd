package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	AuthorId       uuid.UUID
	AuthorName     string
	Content        string
	CreatedAt      time.Time
	EditedAt       *time.Time
	IsDeleted      bool
}
