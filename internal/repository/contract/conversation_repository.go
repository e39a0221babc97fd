package contract

import (
	"context"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation, participants []*entity.Participant) error
	Update(ctx context.Context, conversation *entity.Conversation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	FindAllForUser(ctx context.Context, userId uuid.UUID) ([]*entity.Conversation, error)

	AddParticipant(ctx context.Context, participant *entity.Participant) error
	GetParticipant(ctx context.Context, conversationId, userId uuid.UUID) (*entity.Participant, error)
	GetParticipants(ctx context.Context, conversationId uuid.UUID) ([]*entity.Participant, error)
	IsUserInConversation(ctx context.Context, conversationId, userId uuid.UUID) (bool, error)

	// UpdateLastReadMessage advances the participant's read pointer and returns
	// the effective last-read message. Pointing at a message older than the
	// current pointer is ignored and the current pointer's message is returned.
	UpdateLastReadMessage(ctx context.Context, conversationId, userId, messageId uuid.UUID) (*entity.Message, error)

	// GetUnreadCounts computes, in one query, how many non-deleted messages each
	// given user has not read in the conversation, excluding their own messages.
	GetUnreadCounts(ctx context.Context, conversationId uuid.UUID, userIds []uuid.UUID) (map[uuid.UUID]int64, error)
}
