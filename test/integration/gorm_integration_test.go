package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/implementation"
	"realtime-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Participant{},
		&model.Message{},
		&model.EventLog{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *entity.User {
	t.Helper()
	repo := implementation.NewUserRepository(db)
	u := &entity.User{
		Id:          uuid.New(),
		DisplayName: name,
		Status:      entity.UserStatusOffline,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), u))
	t.Cleanup(func() {
		db.Unscoped().Where("id = ?", u.Id).Delete(&model.User{})
	})
	return u
}

func TestUnreadCountsAndReadPointer(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	convRepo := implementation.NewConversationRepository(db)
	msgRepo := implementation.NewMessageRepository(db)

	alice := seedUser(t, db, "IT Alice")
	bob := seedUser(t, db, "IT Bob")

	conv := &entity.Conversation{
		Id:        uuid.New(),
		CreatedBy: alice.Id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	participants := []*entity.Participant{
		{ConversationId: conv.Id, UserId: alice.Id, JoinedAt: time.Now(), IsAdmin: true},
		{ConversationId: conv.Id, UserId: bob.Id, JoinedAt: time.Now()},
	}
	require.NoError(t, convRepo.Create(ctx, conv, participants))
	t.Cleanup(func() {
		db.Unscoped().Where("conversation_id = ?", conv.Id).Delete(&model.Participant{})
		db.Unscoped().Where("conversation_id = ?", conv.Id).Delete(&model.Message{})
		db.Unscoped().Where("id = ?", conv.Id).Delete(&model.Conversation{})
	})

	send := func(author uuid.UUID, content string) *entity.Message {
		m := &entity.Message{
			Id:             uuid.New(),
			ConversationId: conv.Id,
			AuthorId:       author,
			Content:        content,
			CreatedAt:      time.Now(),
		}
		require.NoError(t, msgRepo.Create(ctx, m))
		// Spread created_at so ordering comparisons are unambiguous.
		time.Sleep(5 * time.Millisecond)
		return m
	}

	m1 := send(alice.Id, "first")
	m2 := send(alice.Id, "second")
	m3 := send(bob.Id, "reply")

	// The author snapshot is filled on create.
	assert.Equal(t, "IT Alice", m1.AuthorName)

	// Bob has two unread (his own reply doesn't count), Alice one.
	counts, err := convRepo.GetUnreadCounts(ctx, conv.Id, []uuid.UUID{alice.Id, bob.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[bob.Id])
	assert.Equal(t, int64(1), counts[alice.Id])

	// Bob reads up to m2.
	resolved, err := convRepo.UpdateLastReadMessage(ctx, conv.Id, bob.Id, m2.Id)
	require.NoError(t, err)
	assert.Equal(t, m2.Id, resolved.Id)

	counts, err = convRepo.GetUnreadCounts(ctx, conv.Id, []uuid.UUID{bob.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[bob.Id], "m3 is bob's own message")

	// Regressing to m1 keeps the pointer at m2.
	resolved, err = convRepo.UpdateLastReadMessage(ctx, conv.Id, bob.Id, m1.Id)
	require.NoError(t, err)
	assert.Equal(t, m2.Id, resolved.Id)

	// Advancing still works.
	resolved, err = convRepo.UpdateLastReadMessage(ctx, conv.Id, bob.Id, m3.Id)
	require.NoError(t, err)
	assert.Equal(t, m3.Id, resolved.Id)

	// Soft-deleted messages drop out of unread counts.
	m4 := send(alice.Id, "retracted")
	require.NoError(t, msgRepo.SoftDelete(ctx, m4.Id))
	counts, err = convRepo.GetUnreadCounts(ctx, conv.Id, []uuid.UUID{bob.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts[bob.Id])
}

func TestMessagePagingNewestFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	convRepo := implementation.NewConversationRepository(db)
	msgRepo := implementation.NewMessageRepository(db)

	alice := seedUser(t, db, "IT Pager")

	conv := &entity.Conversation{
		Id:        uuid.New(),
		CreatedBy: alice.Id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, convRepo.Create(ctx, conv, []*entity.Participant{
		{ConversationId: conv.Id, UserId: alice.Id, JoinedAt: time.Now(), IsAdmin: true},
	}))
	t.Cleanup(func() {
		db.Unscoped().Where("conversation_id = ?", conv.Id).Delete(&model.Participant{})
		db.Unscoped().Where("conversation_id = ?", conv.Id).Delete(&model.Message{})
		db.Unscoped().Where("id = ?", conv.Id).Delete(&model.Conversation{})
	})

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		m := &entity.Message{
			Id:             uuid.New(),
			ConversationId: conv.Id,
			AuthorId:       alice.Id,
			Content:        "msg",
			CreatedAt:      time.Now(),
		}
		require.NoError(t, msgRepo.Create(ctx, m))
		ids = append(ids, m.Id)
		time.Sleep(5 * time.Millisecond)
	}

	page, err := msgRepo.FindPage(ctx, conv.Id, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].Id)
	assert.Equal(t, ids[3], page[1].Id)

	last, err := msgRepo.GetLastMessage(ctx, conv.Id)
	require.NoError(t, err)
	assert.Equal(t, ids[4], last.Id)
}
