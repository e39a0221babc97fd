package bootstrap

import (
	"context"
	"log"

	"realtime-chat-be/internal/config"
	"realtime-chat-be/internal/controller"
	"realtime-chat-be/internal/handler"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/mailer"
	"realtime-chat-be/internal/repository/implementation"
	"realtime-chat-be/internal/repository/memory"
	"realtime-chat-be/internal/service"
	"realtime-chat-be/internal/websocket"

	pktNats "realtime-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

const eventTopic = "chat.events"

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	UserController         controller.IUserController
	ConversationController controller.IConversationController
	MessageController      controller.IMessageController

	// WebSocket
	ChatHandler *handler.ChatHandler
	Hub         *websocket.Hub

	// Background services (main.go runs them)
	EventLogService service.IEventLogService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	chatLogger := logger.NewIsolatedLogger(cfg.App.ChatLogFilePath)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.App.ClientURL,
	)

	// Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// NATS relay is optional; the app runs without it.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Repositories
	userRepo := implementation.NewUserRepository(db)
	convRepo := implementation.NewConversationRepository(db)
	msgRepo := implementation.NewMessageRepository(db)
	eventLogRepo := implementation.NewEventLogRepository(db)
	userCache := memory.NewUserSnapshotCache()

	// Event pipeline
	publisherService := service.NewPublisherService(eventTopic, pubSub)
	eventLogService := service.NewEventLogService(pubSub, eventTopic, eventLogRepo, natsPub, sysLogger)
	if err := eventLogService.Consume(context.Background()); err != nil {
		log.Printf("[WARN] Failed to start event log consumer: %v", err)
	}

	// WebSocket hub
	chatStore := service.NewChatStoreService(userRepo, convRepo, msgRepo, userCache)
	hub := websocket.NewHub(chatStore, publisherService, cfg.Chat.HistoryPageSize, chatLogger)

	// Services
	authService := service.NewAuthService(userRepo, emailService, publisherService, cfg.JWT.Secret, cfg.JWT.ExpiryMinutes)
	userService := service.NewUserService(userRepo, userCache)
	conversationService := service.NewConversationService(convRepo, msgRepo, userRepo, publisherService)
	messageService := service.NewMessageService(msgRepo, convRepo, hub, publisherService, cfg.Chat.HistoryPageSize)

	return &Container{
		AuthController:         controller.NewAuthController(authService),
		UserController:         controller.NewUserController(userService),
		ConversationController: controller.NewConversationController(conversationService, messageService),
		MessageController:      controller.NewMessageController(messageService),

		ChatHandler: handler.NewChatHandler(chatStore, hub, chatLogger),
		Hub:         hub,

		EventLogService: eventLogService,
	}
}
