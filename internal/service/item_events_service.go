package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/item-service/internal/events"
)

// ItemEventsService records committed item mutations. Cache invalidation is
// not done here: it happens on the mutation path so its failure reaches the
// caller.
type ItemEventsService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewItemEventsService creates the service.
func NewItemEventsService(dispatcher events.Dispatcher, logger *zap.Logger) *ItemEventsService {
	return &ItemEventsService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *ItemEventsService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventItemCreated, n.handleItemEvent)
	n.dispatcher.Subscribe(events.EventItemUpdated, n.handleItemEvent)
	n.dispatcher.Subscribe(events.EventItemDeleted, n.handleItemEvent)
}

func (n *ItemEventsService) handleItemEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Int64("item_id", event.ItemID),
		zap.String("actor_tier", string(event.Actor)),
		zap.Time("timestamp", event.Timestamp),
	}
	if payload, ok := event.Payload.(events.ItemChangedPayload); ok {
		fields = append(fields, zap.String("email", payload.Email), zap.Int64("special_id", payload.SpecialID))
	}
	n.logger.Info(string(event.Type), fields...)
	return nil
}
