package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByConversationID filters messages or participants by conversation
type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// ByAuthorID filters messages by author
type ByAuthorID struct {
	AuthorID uuid.UUID
}

func (s ByAuthorID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("author_id = ?", s.AuthorID)
}

// ByEventType filters event log rows by type code
type ByEventType struct {
	Type string
}

func (s ByEventType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", s.Type)
}

// WithAuthor preloads the message author snapshot
type WithAuthor struct{}

func (s WithAuthor) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Author")
}
