package service

import (
	"context"
	"time"

	"chatbots-be/internal/entity"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/pkg/events"
)

const publishTimeout = 2 * time.Second

// IDomainEventPublisher announces changes to the rest of the system.
// Publishing never fails the operation that triggered it.
type IDomainEventPublisher interface {
	ChatbotCreated(ctx context.Context, chatbot *entity.Chatbot)
	ChatbotDeleted(ctx context.Context, chatbotId int64)
	ChatbotFileAdded(ctx context.Context, file *entity.ChatbotFile)
	ChatbotFileIndexed(ctx context.Context, file *entity.ChatbotFile)
	ChatbotFileDeleted(ctx context.Context, chatbotId, fileId int64)
	SessionCreated(ctx context.Context, session *entity.Session)
	SessionDeleted(ctx context.Context, session *entity.Session)
	MessageCreated(ctx context.Context, chatbotId int64, session string, message *entity.Message)
}

type domainEventPublisher struct {
	publisher events.Publisher
	logger    logger.ILogger
}

// NewDomainEventPublisher wraps publisher; a nil publisher drops everything.
func NewDomainEventPublisher(publisher events.Publisher, logger logger.ILogger) IDomainEventPublisher {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &domainEventPublisher{publisher: publisher, logger: logger}
}

func (p *domainEventPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	// The request may finish before the bus acknowledges.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		p.logger.Warn("Events", "Failed to publish "+eventType+" event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (p *domainEventPublisher) ChatbotCreated(ctx context.Context, chatbot *entity.Chatbot) {
	p.publish(ctx, events.TypeChatbotCreated, map[string]interface{}{
		"chatbot_id": chatbot.Id,
		"name":       chatbot.Name,
	})
}

func (p *domainEventPublisher) ChatbotDeleted(ctx context.Context, chatbotId int64) {
	p.publish(ctx, events.TypeChatbotDeleted, map[string]interface{}{
		"chatbot_id": chatbotId,
	})
}

func (p *domainEventPublisher) ChatbotFileAdded(ctx context.Context, file *entity.ChatbotFile) {
	p.publish(ctx, events.TypeChatbotFileAdded, map[string]interface{}{
		"chatbot_id": file.ChatbotId,
		"file_id":    file.Id,
		"s3_key":     file.S3Key,
	})
}

func (p *domainEventPublisher) ChatbotFileIndexed(ctx context.Context, file *entity.ChatbotFile) {
	p.publish(ctx, events.TypeChatbotFileIndexed, map[string]interface{}{
		"chatbot_id": file.ChatbotId,
		"file_id":    file.Id,
		"indexed_at": file.IndexedAt,
	})
}

func (p *domainEventPublisher) ChatbotFileDeleted(ctx context.Context, chatbotId, fileId int64) {
	p.publish(ctx, events.TypeChatbotFileDeleted, map[string]interface{}{
		"chatbot_id": chatbotId,
		"file_id":    fileId,
	})
}

func (p *domainEventPublisher) SessionCreated(ctx context.Context, session *entity.Session) {
	p.publish(ctx, events.TypeSessionCreated, map[string]interface{}{
		"chatbot_id": session.ChatbotId,
		"session_id": session.SessionId,
	})
}

func (p *domainEventPublisher) SessionDeleted(ctx context.Context, session *entity.Session) {
	p.publish(ctx, events.TypeSessionDeleted, map[string]interface{}{
		"chatbot_id": session.ChatbotId,
		"session_id": session.SessionId,
	})
}

func (p *domainEventPublisher) MessageCreated(ctx context.Context, chatbotId int64, session string, message *entity.Message) {
	p.publish(ctx, events.TypeMessageCreated, map[string]interface{}{
		"chatbot_id":  chatbotId,
		"session_id":  session,
		"message_id":  message.Id,
		"sender_type": string(message.SenderType),
		"file_count":  len(message.Files),
	})
}
