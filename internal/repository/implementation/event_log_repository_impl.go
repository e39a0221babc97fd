package implementation

import (
	"context"
	"encoding/json"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/specification"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventLogRepositoryImpl struct {
	db *gorm.DB
}

func NewEventLogRepository(db *gorm.DB) contract.EventLogRepository {
	return &EventLogRepositoryImpl{db: db}
}

func (r *EventLogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *EventLogRepositoryImpl) Create(ctx context.Context, event *entity.EventLog) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	m := &model.EventLog{
		Id:         event.Id,
		Type:       event.Type,
		Payload:    datatypes.JSON(payload),
		OccurredAt: event.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}

	event.Id = m.Id
	event.CreatedAt = m.CreatedAt
	return nil
}

func (r *EventLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.EventLog, error) {
	var models []*model.EventLog
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	logs := make([]*entity.EventLog, len(models))
	for i, m := range models {
		var payload map[string]interface{}
		if len(m.Payload) > 0 {
			// Corrupt payloads are surfaced as nil rather than failing the read.
			_ = json.Unmarshal(m.Payload, &payload)
		}
		logs[i] = &entity.EventLog{
			Id:         m.Id,
			Type:       m.Type,
			Payload:    payload,
			OccurredAt: m.OccurredAt,
			CreatedAt:  m.CreatedAt,
		}
	}
	return logs, nil
}

func (r *EventLogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.EventLog{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
