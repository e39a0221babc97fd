package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"
	"realtime-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeEventLogRepo struct {
	mu      sync.Mutex
	created []*entity.EventLog
}

func (f *fakeEventLogRepo) Create(_ context.Context, e *entity.EventLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, e)
	return nil
}

func (f *fakeEventLogRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.EventLog, error) {
	return nil, nil
}

func (f *fakeEventLogRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return 0, nil
}

func (f *fakeEventLogRepo) snapshot() []*entity.EventLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.EventLog, len(f.created))
	copy(out, f.created)
	return out
}

func TestEventPipelinePersistsPublishedEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	repo := &fakeEventLogRepo{}

	consumer := NewEventLogService(pubSub, "test.events", repo, nil, nopLogger{})
	require.NoError(t, consumer.Consume(context.Background()))

	publisher := NewPublisherService("test.events", pubSub)

	messageId := uuid.New()
	publisher.PublishMessageCreated(context.Background(), &entity.Message{
		Id:             messageId,
		ConversationId: uuid.New(),
		AuthorId:       uuid.New(),
	})

	require.Eventually(t, func() bool {
		return len(repo.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	logged := repo.snapshot()[0]
	assert.Equal(t, events.TypeMessageCreated, logged.Type)
	assert.Equal(t, messageId.String(), logged.Payload["message_id"])
	assert.False(t, logged.OccurredAt.IsZero())
}

func TestEventPipelineSkipsMalformedPayloads(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	repo := &fakeEventLogRepo{}

	consumer := NewEventLogService(pubSub, "test.events", repo, nil, nopLogger{})
	require.NoError(t, consumer.Consume(context.Background()))

	// A frame that isn't a valid envelope is acked and dropped.
	require.NoError(t, pubSub.Publish("test.events", message.NewMessage(watermill.NewUUID(), []byte("{not json"))))

	publisher := NewPublisherService("test.events", pubSub)
	require.NoError(t, publisher.Publish(context.Background(), events.New(events.TypeUserRegistered, map[string]interface{}{
		"user_id": "u-1",
	})))

	require.Eventually(t, func() bool {
		return len(repo.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, events.TypeUserRegistered, repo.snapshot()[0].Type)
}
