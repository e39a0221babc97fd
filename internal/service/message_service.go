package service

import (
	"context"
	"time"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/specification"
	"realtime-chat-be/pkg/events"

	"github.com/google/uuid"
)

// MessageFanout pushes REST-originated messages to live connections. The
// websocket hub implements it.
type MessageFanout interface {
	NotifyNewMessage(ctx context.Context, conversationId uuid.UUID, message *entity.Message)
}

type IMessageService interface {
	GetMessages(ctx context.Context, userId, conversationId uuid.UUID, limit, offset int) (*dto.GetMessagesResponse, error)
	SendMessage(ctx context.Context, userId, conversationId uuid.UUID, req *dto.SendMessageRequest) (*dto.MessagePayload, error)
	EditMessage(ctx context.Context, userId, messageId uuid.UUID, req *dto.EditMessageRequest) (*dto.MessagePayload, error)
	DeleteMessage(ctx context.Context, userId, messageId uuid.UUID) error
}

type messageService struct {
	msgRepo         contract.MessageRepository
	convRepo        contract.ConversationRepository
	fanout          MessageFanout
	publisher       IPublisherService
	defaultPageSize int
}

func NewMessageService(
	msgRepo contract.MessageRepository,
	convRepo contract.ConversationRepository,
	fanout MessageFanout,
	publisher IPublisherService,
	defaultPageSize int,
) IMessageService {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	return &messageService{
		msgRepo:         msgRepo,
		convRepo:        convRepo,
		fanout:          fanout,
		publisher:       publisher,
		defaultPageSize: defaultPageSize,
	}
}

func (s *messageService) GetMessages(ctx context.Context, userId, conversationId uuid.UUID, limit, offset int) (*dto.GetMessagesResponse, error) {
	if err := s.requireMember(ctx, conversationId, userId); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = s.defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.msgRepo.FindPage(ctx, conversationId, limit, offset)
	if err != nil {
		return nil, err
	}

	// Pages come back newest first; serve them chronologically.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &dto.GetMessagesResponse{
		ConversationId: conversationId,
		Messages:       dto.NewMessagePayloads(messages),
		Limit:          limit,
		Offset:         offset,
	}, nil
}

func (s *messageService) SendMessage(ctx context.Context, userId, conversationId uuid.UUID, req *dto.SendMessageRequest) (*dto.MessagePayload, error) {
	if err := s.requireMember(ctx, conversationId, userId); err != nil {
		return nil, err
	}

	message := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		AuthorId:       userId,
		Content:        req.Content,
		CreatedAt:      time.Now(),
	}
	if err := s.msgRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishMessageCreated(ctx, message)
	}

	// Live viewers get the same events a socket-sent message produces.
	if s.fanout != nil {
		s.fanout.NotifyNewMessage(ctx, conversationId, message)
	}

	return dto.NewMessagePayload(message), nil
}

func (s *messageService) EditMessage(ctx context.Context, userId, messageId uuid.UUID, req *dto.EditMessageRequest) (*dto.MessagePayload, error) {
	message, err := s.requireAuthor(ctx, messageId, userId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	message.Content = req.Content
	message.EditedAt = &now

	if err := s.msgRepo.Update(ctx, message); err != nil {
		return nil, err
	}
	return dto.NewMessagePayload(message), nil
}

func (s *messageService) DeleteMessage(ctx context.Context, userId, messageId uuid.UUID) error {
	message, err := s.requireAuthor(ctx, messageId, userId)
	if err != nil {
		return err
	}

	if err := s.msgRepo.SoftDelete(ctx, message.Id); err != nil {
		return err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.New(events.TypeMessageDeleted, map[string]interface{}{
			"message_id":      message.Id.String(),
			"conversation_id": message.ConversationId.String(),
		}))
	}
	return nil
}

func (s *messageService) requireMember(ctx context.Context, conversationId, userId uuid.UUID) error {
	member, err := s.convRepo.IsUserInConversation(ctx, conversationId, userId)
	if err != nil {
		return err
	}
	if !member {
		return serverutils.ErrNotAMember
	}
	return nil
}

// requireAuthor loads the message and verifies the caller wrote it.
func (s *messageService) requireAuthor(ctx context.Context, messageId, userId uuid.UUID) (*entity.Message, error) {
	message, err := s.msgRepo.FindOne(ctx, specification.ByID{ID: messageId}, specification.WithAuthor{})
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, serverutils.ErrNotFound
	}
	if message.AuthorId != userId {
		return nil, serverutils.ErrForbidden
	}
	return message, nil
}
