package contract

import (
	"context"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"
)

type EventLogRepository interface {
	Create(ctx context.Context, event *entity.EventLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EventLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
