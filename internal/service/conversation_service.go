package service

import (
	"context"
	"strings"
	"time"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/specification"
	"realtime-chat-be/pkg/events"

	"github.com/google/uuid"
)

type IConversationService interface {
	Create(ctx context.Context, creatorId uuid.UUID, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error)
	GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error)
	GetConversation(ctx context.Context, userId, conversationId uuid.UUID) (*dto.ConversationResponse, error)
	UpdateTitle(ctx context.Context, userId, conversationId uuid.UUID, req *dto.UpdateTitleRequest) (*dto.ConversationResponse, error)
	AddParticipant(ctx context.Context, userId, conversationId uuid.UUID, req *dto.AddParticipantRequest) error
}

type conversationService struct {
	convRepo  contract.ConversationRepository
	msgRepo   contract.MessageRepository
	userRepo  contract.UserRepository
	publisher IPublisherService
}

func NewConversationService(
	convRepo contract.ConversationRepository,
	msgRepo contract.MessageRepository,
	userRepo contract.UserRepository,
	publisher IPublisherService,
) IConversationService {
	return &conversationService{
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

func (s *conversationService) Create(ctx context.Context, creatorId uuid.UUID, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	now := time.Now()

	conversation := &entity.Conversation{
		Id:        uuid.New(),
		Title:     req.Title,
		CreatedBy: creatorId,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The creator is always a participant and the initial admin, whether or
	// not the request lists them.
	memberIds := map[uuid.UUID]struct{}{creatorId: {}}
	for _, id := range req.ParticipantIds {
		memberIds[id] = struct{}{}
	}

	participants := make([]*entity.Participant, 0, len(memberIds))
	for id := range memberIds {
		participants = append(participants, &entity.Participant{
			ConversationId: conversation.Id,
			UserId:         id,
			JoinedAt:       now,
			IsAdmin:        id == creatorId,
		})
	}

	if err := s.convRepo.Create(ctx, conversation, participants); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.New(events.TypeConversationCreated, map[string]interface{}{
			"conversation_id": conversation.Id.String(),
			"created_by":      creatorId.String(),
			"participants":    len(participants),
		}))
	}

	return s.buildResponse(ctx, conversation, creatorId)
}

func (s *conversationService) GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error) {
	conversations, err := s.convRepo.FindAllForUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		resp, err := s.buildResponse(ctx, conv, userId)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *conversationService) GetConversation(ctx context.Context, userId, conversationId uuid.UUID) (*dto.ConversationResponse, error) {
	conversation, err := s.requireMember(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, conversation, userId)
}

func (s *conversationService) UpdateTitle(ctx context.Context, userId, conversationId uuid.UUID, req *dto.UpdateTitleRequest) (*dto.ConversationResponse, error) {
	conversation, err := s.requireMember(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	conversation.Title = &title
	conversation.UpdatedAt = time.Now()

	if err := s.convRepo.Update(ctx, conversation); err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, conversation, userId)
}

func (s *conversationService) AddParticipant(ctx context.Context, userId, conversationId uuid.UUID, req *dto.AddParticipantRequest) error {
	if _, err := s.requireMember(ctx, conversationId, userId); err != nil {
		return err
	}

	caller, err := s.convRepo.GetParticipant(ctx, conversationId, userId)
	if err != nil {
		return err
	}
	if caller == nil || !caller.IsAdmin {
		return serverutils.ErrForbidden
	}

	target, err := s.userRepo.FindOne(ctx, specification.ByID{ID: req.UserId})
	if err != nil {
		return err
	}
	if target == nil {
		return serverutils.ErrNotFound
	}

	existing, err := s.convRepo.GetParticipant(ctx, conversationId, req.UserId)
	if err != nil {
		return err
	}
	if existing != nil {
		return serverutils.ErrConflict
	}

	return s.convRepo.AddParticipant(ctx, &entity.Participant{
		ConversationId: conversationId,
		UserId:         req.UserId,
		JoinedAt:       time.Now(),
	})
}

// requireMember loads the conversation and verifies the caller belongs to it.
func (s *conversationService) requireMember(ctx context.Context, conversationId, userId uuid.UUID) (*entity.Conversation, error) {
	conversation, err := s.convRepo.FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, serverutils.ErrNotFound
	}

	member, err := s.convRepo.IsUserInConversation(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, serverutils.ErrNotAMember
	}
	return conversation, nil
}

// buildResponse shapes a conversation for the given viewer: participant
// roster, derived title, last message, and the viewer's unread count.
func (s *conversationService) buildResponse(ctx context.Context, conversation *entity.Conversation, viewerId uuid.UUID) (*dto.ConversationResponse, error) {
	participants, err := s.convRepo.GetParticipants(ctx, conversation.Id)
	if err != nil {
		return nil, err
	}

	roster := make([]dto.ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		pr := dto.ParticipantResponse{
			UserId:   p.UserId,
			IsAdmin:  p.IsAdmin,
			JoinedAt: p.JoinedAt,
		}
		if p.User != nil {
			pr.DisplayName = p.User.DisplayName
			pr.Status = string(p.User.Status)
		}
		roster = append(roster, pr)
	}

	lastMessage, err := s.msgRepo.GetLastMessage(ctx, conversation.Id)
	if err != nil {
		return nil, err
	}

	counts, err := s.convRepo.GetUnreadCounts(ctx, conversation.Id, []uuid.UUID{viewerId})
	if err != nil {
		return nil, err
	}

	return &dto.ConversationResponse{
		Id:            conversation.Id,
		Title:         deriveTitle(conversation, participants, viewerId),
		IsCustomTitle: conversation.IsCustomTitle(),
		CreatedBy:     conversation.CreatedBy,
		CreatedAt:     conversation.CreatedAt,
		Participants:  roster,
		LastMessage:   dto.NewMessagePayload(lastMessage),
		UnreadCount:   counts[viewerId],
	}, nil
}

// deriveTitle falls back to the other participants' names when no custom
// title was set, so every viewer sees a meaningful label.
func deriveTitle(conversation *entity.Conversation, participants []*entity.Participant, viewerId uuid.UUID) string {
	if conversation.IsCustomTitle() {
		return *conversation.Title
	}

	names := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.UserId == viewerId || p.User == nil {
			continue
		}
		names = append(names, p.User.DisplayName)
	}
	if len(names) == 0 {
		return "Empty conversation"
	}
	return strings.Join(names, ", ")
}
