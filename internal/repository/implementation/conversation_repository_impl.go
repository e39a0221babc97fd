package implementation

import (
	"context"
	"errors"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/mapper"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ConversationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Create persists the conversation and its initial participant rows in one
// transaction, so a conversation can never exist without participants.
func (r *ConversationRepositoryImpl) Create(ctx context.Context, conversation *entity.Conversation, participants []*entity.Participant) error {
	m := r.mapper.ConversationToModel(conversation)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		for _, p := range participants {
			pm := r.mapper.ParticipantToModel(p)
			pm.ConversationId = m.Id
			if err := tx.Create(pm).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	*conversation = *r.mapper.ConversationToEntity(m)
	return nil
}

func (r *ConversationRepositoryImpl) Update(ctx context.Context, conversation *entity.Conversation) error {
	m := r.mapper.ConversationToModel(conversation)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*conversation = *r.mapper.ConversationToEntity(m)
	return nil
}

func (r *ConversationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	var m model.Conversation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ConversationToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) FindAllForUser(ctx context.Context, userId uuid.UUID) ([]*entity.Conversation, error) {
	var models []*model.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN participants ON participants.conversation_id = conversations.id").
		Where("participants.user_id = ?", userId).
		Order("conversations.updated_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	conversations := make([]*entity.Conversation, len(models))
	for i, m := range models {
		conversations[i] = r.mapper.ConversationToEntity(m)
	}
	return conversations, nil
}

func (r *ConversationRepositoryImpl) AddParticipant(ctx context.Context, participant *entity.Participant) error {
	pm := r.mapper.ParticipantToModel(participant)
	if err := r.db.WithContext(ctx).Create(pm).Error; err != nil {
		return err
	}
	*participant = *r.mapper.ParticipantToEntity(pm)
	return nil
}

func (r *ConversationRepositoryImpl) GetParticipant(ctx context.Context, conversationId, userId uuid.UUID) (*entity.Participant, error) {
	var m model.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("conversation_id = ? AND user_id = ?", conversationId, userId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ParticipantToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) GetParticipants(ctx context.Context, conversationId uuid.UUID) ([]*entity.Participant, error) {
	var models []*model.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("conversation_id = ?", conversationId).
		Order("joined_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	participants := make([]*entity.Participant, len(models))
	for i, m := range models {
		participants[i] = r.mapper.ParticipantToEntity(m)
	}
	return participants, nil
}

func (r *ConversationRepositoryImpl) IsUserInConversation(ctx context.Context, conversationId, userId uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationId, userId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastReadMessage advances the read pointer monotonically. A message id
// older than the current pointer does not regress it; the write is skipped and
// the current pointer's message is returned instead.
func (r *ConversationRepositoryImpl) UpdateLastReadMessage(ctx context.Context, conversationId, userId, messageId uuid.UUID) (*entity.Message, error) {
	messages := NewMessageRepository(r.db)

	target, err := messages.FindOne(ctx,
		specification.ByID{ID: messageId},
		specification.ByConversationID{ConversationID: conversationId},
	)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, gorm.ErrRecordNotFound
	}

	participant, err := r.GetParticipant(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, gorm.ErrRecordNotFound
	}

	if participant.LastReadMessageId != nil {
		current, err := messages.FindOne(ctx, specification.ByID{ID: *participant.LastReadMessageId})
		if err != nil {
			return nil, err
		}
		if current != nil && target.CreatedAt.Before(current.CreatedAt) {
			return current, nil
		}
	}

	err = r.db.WithContext(ctx).Model(&model.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationId, userId).
		Update("last_read_message_id", messageId).Error
	if err != nil {
		return nil, err
	}

	return target, nil
}

// GetUnreadCounts runs the batched aggregate: per given user, the number of
// non-deleted conversation messages authored by someone else and newer than
// that user's last-read message (all of them when the pointer is null).
func (r *ConversationRepositoryImpl) GetUnreadCounts(ctx context.Context, conversationId uuid.UUID, userIds []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(userIds))
	if len(userIds) == 0 {
		return counts, nil
	}
	for _, id := range userIds {
		counts[id] = 0
	}

	type row struct {
		UserId uuid.UUID
		Unread int64
	}
	var rows []row

	err := r.db.WithContext(ctx).Raw(`
		SELECT p.user_id AS user_id, COUNT(m.id) AS unread
		FROM participants p
		JOIN messages m
			ON m.conversation_id = p.conversation_id
			AND m.deleted_at IS NULL
			AND m.author_id <> p.user_id
			AND (
				p.last_read_message_id IS NULL
				OR m.created_at > (SELECT lr.created_at FROM messages lr WHERE lr.id = p.last_read_message_id)
			)
		WHERE p.conversation_id = ? AND p.user_id IN ?
		GROUP BY p.user_id`,
		conversationId, userIds,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		counts[rw.UserId] = rw.Unread
	}
	return counts, nil
}
