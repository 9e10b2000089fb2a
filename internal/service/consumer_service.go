package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chatbots-be/internal/dto"
	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
)

// IConsumerService runs the background indexing of uploaded chatbot files.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	store      contract.EntityStore
	events     IDomainEventPublisher
	logger     logger.ILogger
	now        func() time.Time
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	store contract.EntityStore,
	events IDomainEventPublisher,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		store:      store,
		events:     events,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Consume subscribes and processes jobs in the background until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IndexChatbotFileMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Indexer", "Dropping malformed indexing job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	file, err := cs.store.MarkChatbotFileIndexed(payload.ChatbotFileId, cs.now())
	if errors.Is(err, apperror.ErrNotFound) {
		// Deleted before we got to it.
		cs.logger.Info("Indexer", "Skipping deleted chatbot file", map[string]interface{}{
			"file_id": payload.ChatbotFileId,
		})
		msg.Ack()
		return
	}
	if err != nil {
		cs.logger.Error("Indexer", "Failed to mark chatbot file indexed", map[string]interface{}{
			"file_id": payload.ChatbotFileId,
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("Indexer", "Chatbot file indexed", map[string]interface{}{
		"chatbot_id": file.ChatbotId,
		"file_id":    file.Id,
		"bytes":      len(payload.Content),
	})
	cs.events.ChatbotFileIndexed(ctx, file)
	msg.Ack()
}
