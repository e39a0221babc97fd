package service

import (
	"context"
	"encoding/json"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/pkg/events"
	pktNats "realtime-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IEventLogService interface {
	Consume(ctx context.Context) error
}

// eventLogService drains the in-process bus, appends every event to the
// durable event log, and relays it to NATS for external consumers. The relay
// is best effort; the log write is not.
type eventLogService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	repo      contract.EventLogRepository
	natsPub   *pktNats.Publisher
	logger    logger.ILogger
}

func NewEventLogService(
	pubSub *gochannel.GoChannel,
	topicName string,
	repo contract.EventLogRepository,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
) IEventLogService {
	return &eventLogService{
		pubSub:    pubSub,
		topicName: topicName,
		repo:      repo,
		natsPub:   natsPub,
		logger:    log,
	}
}

func (s *eventLogService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *eventLogService) processMessage(ctx context.Context, msg *message.Message) {
	var env eventEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		s.logger.Error("EventLogService", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		// Ack malformed payloads to prevent infinite retry.
		msg.Ack()
		return
	}

	log := &entity.EventLog{
		Id:         uuid.New(),
		Type:       env.Type,
		Payload:    env.Payload,
		OccurredAt: env.OccurredAt,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Error("EventLogService", "Failed to persist event", map[string]interface{}{
			"type": env.Type, "error": err.Error(),
		})
		msg.Nack()
		return
	}

	if s.natsPub != nil {
		evt := events.BaseEvent{Type: env.Type, Data: env.Payload, OccurredAt: env.OccurredAt}
		if err := s.natsPub.Publish(ctx, evt); err != nil {
			s.logger.Warn("EventLogService", "NATS relay failed", map[string]interface{}{
				"type": env.Type, "error": err.Error(),
			})
		}
	}

	msg.Ack()
}
