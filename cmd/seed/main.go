package main

import (
	"context"
	"log"
	"os"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/implementation"
	"realtime-chat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo roster: three users, one group conversation, and a short
// message history so a fresh environment has something to look at.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	userRepo := implementation.NewUserRepository(db)
	convRepo := implementation.NewConversationRepository(db)
	msgRepo := implementation.NewMessageRepository(db)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	hashStr := string(hash)

	now := time.Now()
	seedUsers := []*entity.User{
		{Id: uuid.New(), DisplayName: "Alice", Email: strPtr("alice@example.com"), PasswordHash: &hashStr, Status: entity.UserStatusOffline, CreatedAt: now, UpdatedAt: now},
		{Id: uuid.New(), DisplayName: "Bob", Email: strPtr("bob@example.com"), PasswordHash: &hashStr, Status: entity.UserStatusOffline, CreatedAt: now, UpdatedAt: now},
		{Id: uuid.New(), DisplayName: "Charlie", Email: strPtr("charlie@example.com"), PasswordHash: &hashStr, Status: entity.UserStatusOffline, CreatedAt: now, UpdatedAt: now},
	}

	for _, u := range seedUsers {
		if err := userRepo.Create(ctx, u); err != nil {
			color.Red("✗ Failed to create user %s: %v", u.DisplayName, err)
			os.Exit(1)
		}
		color.Green("✓ Created user %s (%s)", u.DisplayName, u.Id)
	}

	title := "Project Kickoff"
	conversation := &entity.Conversation{
		Id:        uuid.New(),
		Title:     &title,
		CreatedBy: seedUsers[0].Id,
		CreatedAt: now,
		UpdatedAt: now,
	}

	participants := make([]*entity.Participant, len(seedUsers))
	for i, u := range seedUsers {
		participants[i] = &entity.Participant{
			ConversationId: conversation.Id,
			UserId:         u.Id,
			JoinedAt:       now,
			IsAdmin:        i == 0,
		}
	}

	if err := convRepo.Create(ctx, conversation, participants); err != nil {
		color.Red("✗ Failed to create conversation: %v", err)
		os.Exit(1)
	}
	color.Green("✓ Created conversation %q (%s)", title, conversation.Id)

	lines := []struct {
		author  int
		content string
	}{
		{0, "Hey team, welcome to the kickoff room!"},
		{1, "Glad to be here. What's first on the agenda?"},
		{2, "I'll take notes. Fire away."},
		{0, "Let's start with the realtime protocol review."},
	}

	for _, line := range lines {
		msg := &entity.Message{
			Id:             uuid.New(),
			ConversationId: conversation.Id,
			AuthorId:       seedUsers[line.author].Id,
			Content:        line.content,
			CreatedAt:      time.Now(),
		}
		if err := msgRepo.Create(ctx, msg); err != nil {
			color.Red("✗ Failed to create message: %v", err)
			os.Exit(1)
		}
	}
	color.Green("✓ Seeded %d messages", len(lines))

	color.Cyan("Done. Log in as alice@example.com / password123")
}

func strPtr(s string) *string { return &s }
