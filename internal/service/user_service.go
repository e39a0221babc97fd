package service

import (
	"context"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/memory"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type IUserService interface {
	GetUser(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error)
	GetUsers(ctx context.Context) ([]dto.UserResponse, error)
	UpdateStatus(ctx context.Context, userId uuid.UUID, req *dto.UpdateStatusRequest) (*dto.UserResponse, error)
}

type userService struct {
	userRepo  contract.UserRepository
	userCache *memory.UserSnapshotCache
}

func NewUserService(userRepo contract.UserRepository, userCache *memory.UserSnapshotCache) IUserService {
	return &userService{
		userRepo:  userRepo,
		userCache: userCache,
	}
}

func (s *userService) GetUser(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error) {
	if cached, ok := s.userCache.Get(userId); ok {
		resp := dto.NewUserResponse(cached)
		return &resp, nil
	}

	user, err := s.userRepo.FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.ErrNotFound
	}

	s.userCache.Set(user)
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *userService) GetUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx, specification.OrderBy{Field: "display_name"})
	if err != nil {
		return nil, err
	}

	out := make([]dto.UserResponse, len(users))
	for i, u := range users {
		out[i] = dto.NewUserResponse(u)
	}
	return out, nil
}

func (s *userService) UpdateStatus(ctx context.Context, userId uuid.UUID, req *dto.UpdateStatusRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.UpdateStatus(ctx, userId, entity.UserStatus(req.Status))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.ErrNotFound
	}

	s.userCache.Set(user)
	resp := dto.NewUserResponse(user)
	return &resp, nil
}
