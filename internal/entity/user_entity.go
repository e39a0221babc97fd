package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusOnline  UserStatus = "online"
	UserStatusAway    UserStatus = "away"
	UserStatusOffline UserStatus = "offline"
)

type User struct {
	Id           uuid.UUID
	DisplayName  string
	Email        *string
	PasswordHash *string
	Status       UserStatus
	LastSeen     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
