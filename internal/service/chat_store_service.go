package service

import (
	"context"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/memory"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChatStoreService is the durable-store facade the websocket hub runs
// against. It fronts the repositories with a short-lived user snapshot cache
// so handshakes and presence writes don't hammer the users table.
type ChatStoreService struct {
	userRepo  contract.UserRepository
	convRepo  contract.ConversationRepository
	msgRepo   contract.MessageRepository
	userCache *memory.UserSnapshotCache
}

func NewChatStoreService(
	userRepo contract.UserRepository,
	convRepo contract.ConversationRepository,
	msgRepo contract.MessageRepository,
	userCache *memory.UserSnapshotCache,
) *ChatStoreService {
	return &ChatStoreService{
		userRepo:  userRepo,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		userCache: userCache,
	}
}

func (s *ChatStoreService) GetUserByID(ctx context.Context, userId uuid.UUID) (*entity.User, error) {
	if cached, ok := s.userCache.Get(userId); ok {
		return cached, nil
	}

	user, err := s.userRepo.FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.ErrNotFound
	}

	s.userCache.Set(user)
	return user, nil
}

func (s *ChatStoreService) IsUserInConversation(ctx context.Context, conversationId, userId uuid.UUID) (bool, error) {
	return s.convRepo.IsUserInConversation(ctx, conversationId, userId)
}

func (s *ChatStoreService) CreateMessage(ctx context.Context, conversationId, authorId uuid.UUID, content string) (*entity.Message, error) {
	message := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		AuthorId:       authorId,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := s.msgRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *ChatStoreService) GetMessagesForConversation(ctx context.Context, conversationId uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	return s.msgRepo.FindPage(ctx, conversationId, limit, offset)
}

// GetLastReadMessage resolves the participant's read pointer to the message it
// names. A participant who has read nothing yields nil.
func (s *ChatStoreService) GetLastReadMessage(ctx context.Context, conversationId, userId uuid.UUID) (*entity.Message, error) {
	participant, err := s.convRepo.GetParticipant(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}
	if participant == nil || participant.LastReadMessageId == nil {
		return nil, nil
	}

	return s.msgRepo.FindOne(ctx,
		specification.ByID{ID: *participant.LastReadMessageId},
		specification.WithAuthor{},
	)
}

func (s *ChatStoreService) UpdateLastReadMessage(ctx context.Context, conversationId, userId, messageId uuid.UUID) (*entity.Message, error) {
	return s.convRepo.UpdateLastReadMessage(ctx, conversationId, userId, messageId)
}

func (s *ChatStoreService) GetParticipantsForConversation(ctx context.Context, conversationId uuid.UUID) ([]*entity.Participant, error) {
	return s.convRepo.GetParticipants(ctx, conversationId)
}

func (s *ChatStoreService) GetUnreadCounts(ctx context.Context, conversationId uuid.UUID, userIds []uuid.UUID) (map[uuid.UUID]int64, error) {
	return s.convRepo.GetUnreadCounts(ctx, conversationId, userIds)
}

func (s *ChatStoreService) UpdateUserStatus(ctx context.Context, userId uuid.UUID, status entity.UserStatus) error {
	user, err := s.userRepo.UpdateStatus(ctx, userId, status)
	if err != nil {
		return err
	}
	if user != nil {
		s.userCache.Set(user)
	}
	return nil
}
