package service

import (
	"context"

	"chatbots-be/internal/dto"
	"chatbots-be/internal/entity"
	"chatbots-be/internal/mapper"
	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/repository/contract"
)

type IMessageService interface {
	Send(ctx context.Context, chatbotId int64, sessionId string, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	List(ctx context.Context, chatbotId int64, sessionId string) ([]*dto.MessageResponse, error)
}

type messageService struct {
	store  contract.EntityStore
	events IDomainEventPublisher
	mapper *mapper.SessionMapper
	logger logger.ILogger
}

func NewMessageService(
	store contract.EntityStore,
	events IDomainEventPublisher,
	logger logger.ILogger,
) IMessageService {
	return &messageService{
		store:  store,
		events: events,
		mapper: mapper.NewSessionMapper(),
		logger: logger,
	}
}

// Send appends a message and its attachments to the session in one step.
func (s *messageService) Send(ctx context.Context, chatbotId int64, sessionId string, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	session, err := findSession(s.store, chatbotId, sessionId)
	if err != nil {
		return nil, err
	}

	if len(req.MetadataForFiles) != len(req.Files) {
		return nil, apperror.ValidationField("metadata_for_files", "Metadata entries must match the number of uploaded files.")
	}

	sender := entity.SenderType(req.SenderType)
	if !sender.Valid() {
		return nil, apperror.ValidationField("sender_type", "sender_type must be one of [user assistant system]")
	}

	msg := &entity.Message{
		SessionId:        session.Id,
		SenderType:       sender,
		Content:          req.Content,
		ResponseId:       req.ResponseId,
		ParentResponseId: req.ParentResponseId,
		Metadata:         req.Metadata,
		Usage:            req.Usage,
		Files:            make([]entity.FileAttachment, 0, len(req.Files)),
	}
	for i, header := range req.Files {
		meta := &req.MetadataForFiles[i]
		name, mimeType, size := uploadDefaults(header, meta)

		// A blank key is filled in by the store once the message id is known.
		var key string
		if meta.S3Key != nil {
			key = *meta.S3Key
		}
		msg.Files = append(msg.Files, entity.FileAttachment{
			S3Key:    key,
			FileName: name,
			MimeType: &mimeType,
			FileSize: &size,
		})
	}

	created, err := s.store.AddMessage(msg)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("MessageService", "Message stored", map[string]interface{}{
		"chatbot_id": chatbotId,
		"session_id": session.SessionId,
		"message_id": created.Id,
		"files":      len(created.Files),
	})
	s.events.MessageCreated(ctx, chatbotId, session.SessionId, created)

	return s.mapper.MessageToResponse(created), nil
}

func (s *messageService) List(ctx context.Context, chatbotId int64, sessionId string) ([]*dto.MessageResponse, error) {
	session, err := findSession(s.store, chatbotId, sessionId)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessagesFor(session.Id)
	if err != nil {
		return nil, err
	}
	return s.mapper.MessagesToResponse(messages), nil
}
