package dto

import (
	"time"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

type UserResponse struct {
	Id          uuid.UUID  `json:"id"`
	DisplayName string     `json:"display_name"`
	Email       *string    `json:"email,omitempty"`
	Status      string     `json:"status"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		Id:          u.Id,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Status:      string(u.Status),
		LastSeen:    u.LastSeen,
		CreatedAt:   u.CreatedAt,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=online away offline"`
}
