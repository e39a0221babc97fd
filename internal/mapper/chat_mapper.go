package mapper

import (
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/model"
)

type ChatMapper struct {
	users *UserMapper
}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{users: NewUserMapper()}
}

// Conversation mappers

func (m *ChatMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	return &entity.Conversation{
		Id:        c.Id,
		Title:     c.Title,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *ChatMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	return &model.Conversation{
		Id:        c.Id,
		Title:     c.Title,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Participant mappers

func (m *ChatMapper) ParticipantToEntity(p *model.Participant) *entity.Participant {
	if p == nil {
		return nil
	}

	return &entity.Participant{
		ConversationId:    p.ConversationId,
		UserId:            p.UserId,
		JoinedAt:          p.JoinedAt,
		IsAdmin:           p.IsAdmin,
		LastReadMessageId: p.LastReadMessageId,
		User:              m.users.ToEntity(p.User),
	}
}

func (m *ChatMapper) ParticipantToModel(p *entity.Participant) *model.Participant {
	if p == nil {
		return nil
	}

	return &model.Participant{
		ConversationId:    p.ConversationId,
		UserId:            p.UserId,
		JoinedAt:          p.JoinedAt,
		IsAdmin:           p.IsAdmin,
		LastReadMessageId: p.LastReadMessageId,
	}
}

// Message mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	authorName := ""
	if msg.Author != nil {
		authorName = msg.Author.DisplayName
	}

	return &entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		AuthorId:       msg.AuthorId,
		AuthorName:     authorName,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
		EditedAt:       msg.EditedAt,
		IsDeleted:      msg.DeletedAt.Valid,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	return &model.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		AuthorId:       msg.AuthorId,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
		EditedAt:       msg.EditedAt,
	}
}
