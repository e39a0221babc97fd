package service

import (
	"context"
	"encoding/json"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
	PublishMessageCreated(ctx context.Context, m *entity.Message)
}

// eventEnvelope is the wire form events travel in on the in-process bus.
type eventEnvelope struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (s *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(eventEnvelope{
		Type:       event.EventType(),
		Payload:    event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return s.pubSub.Publish(s.topicName, msg)
}

// PublishMessageCreated satisfies the hub's publisher contract. Emission is
// best effort; the message is already durable when this runs.
func (s *publisherService) PublishMessageCreated(ctx context.Context, m *entity.Message) {
	evt := events.New(events.TypeMessageCreated, map[string]interface{}{
		"message_id":      m.Id.String(),
		"conversation_id": m.ConversationId.String(),
		"author_id":       m.AuthorId.String(),
	})
	_ = s.Publish(ctx, evt)
}
