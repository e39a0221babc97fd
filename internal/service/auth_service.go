package service

import (
	"context"
	"time"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/mailer"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/specification"
	"realtime-chat-be/pkg/events"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	userRepo      contract.UserRepository
	emailService  mailer.IEmailService
	publisher     IPublisherService
	jwtSecret     string
	expiryMinutes int
}

func NewAuthService(
	userRepo contract.UserRepository,
	emailService mailer.IEmailService,
	publisher IPublisherService,
	jwtSecret string,
	expiryMinutes int,
) IAuthService {
	return &authService{
		userRepo:      userRepo,
		emailService:  emailService,
		publisher:     publisher,
		jwtSecret:     jwtSecret,
		expiryMinutes: expiryMinutes,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if req.Email != "" {
		existing, err := s.userRepo.FindOne(ctx, specification.ByEmail{Email: req.Email})
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, serverutils.ErrConflict
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &entity.User{
		Id:           uuid.New(),
		DisplayName:  req.DisplayName,
		PasswordHash: &hashStr,
		Status:       entity.UserStatusOffline,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if req.Email != "" {
		email := req.Email
		user.Email = &email
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.generateToken(user.Id)
	if err != nil {
		return nil, err
	}

	if user.Email != nil {
		// Welcome mail must never block or fail registration.
		go func(email, name string) {
			_ = s.emailService.SendWelcome(email, name)
		}(*user.Email, user.DisplayName)
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.New(events.TypeUserRegistered, map[string]interface{}{
			"user_id":      user.Id.String(),
			"display_name": user.DisplayName,
		}))
	}

	return &dto.RegisterResponse{Id: user.Id, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		return nil, serverutils.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, serverutils.ErrUnauthorized
	}

	token, err := s.generateToken(user.Id)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	}, nil
}

func (s *authService) generateToken(userId uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userId.String(),
		"exp":     time.Now().Add(time.Duration(s.expiryMinutes) * time.Minute).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
