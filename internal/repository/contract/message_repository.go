package contract

import (
	"context"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// Create persists the message and fills in store-assigned fields
	// (id, created_at, author display name).
	Create(ctx context.Context, message *entity.Message) error
	Update(ctx context.Context, message *entity.Message) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindPage returns a page of non-deleted conversation messages,
	// newest first. Callers reverse for chronological delivery.
	FindPage(ctx context.Context, conversationId uuid.UUID, limit, offset int) ([]*entity.Message, error)
	GetLastMessage(ctx context.Context, conversationId uuid.UUID) (*entity.Message, error)
}
