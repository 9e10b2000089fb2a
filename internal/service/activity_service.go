package service

import (
	"context"
	"strings"

	"chatbots-be/internal/pkg/logger"
	"chatbots-be/pkg/events"
	pktNats "chatbots-be/pkg/nats"
)

type EventSubscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler pktNats.EventHandler) error
}

// ActivityService writes every domain event on the bus to the activity log.
type ActivityService struct {
	subscriber EventSubscriber
	logger     logger.ILogger
}

func NewActivityService(sub EventSubscriber, log logger.ILogger) *ActivityService {
	return &ActivityService{subscriber: sub, logger: log}
}

func (s *ActivityService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, pktNats.Subject(">"), "chatbots-activity-log", s.handleEvent); err != nil {
		s.logger.Error("ActivityService", "Failed to start activity subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("ActivityService", "Listening to domain events", nil)
	return nil
}

func (s *ActivityService) handleEvent(ctx context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+2)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["type"] = strings.TrimPrefix(event.EventType(), "events.")
	details["occurred_at"] = event.Timestamp()

	s.logger.Info("Activity", "Domain event", details)
	return nil
}
