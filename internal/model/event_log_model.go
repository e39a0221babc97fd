package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EventLog struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type       string         `gorm:"type:varchar(100);not null;index"`
	Payload    datatypes.JSON `gorm:"type:jsonb"`
	OccurredAt time.Time      `gorm:"not null;index"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (EventLog) TableName() string {
	return "event_logs"
}
