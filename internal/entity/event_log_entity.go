package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventLog is a persisted domain event (audit trail of the internal bus).
type EventLog struct {
	Id         uuid.UUID
	Type       string
	Payload    map[string]interface{}
	OccurredAt time.Time
	CreatedAt  time.Time
}
