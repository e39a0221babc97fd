package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     *string   `gorm:"type:varchar(255)"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type Participant struct {
	ConversationId    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId            uuid.UUID  `gorm:"type:uuid;primaryKey;index:idx_participants_user"`
	JoinedAt          time.Time  `gorm:"autoCreateTime"`
	IsAdmin           bool       `gorm:"not null;default:false"`
	LastReadMessageId *uuid.UUID `gorm:"type:uuid"`

	User *User `gorm:"foreignKey:UserId"`
}

func (Participant) TableName() string {
	return "participants"
}
