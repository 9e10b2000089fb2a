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

type ISessionService interface {
	Create(ctx context.Context, chatbotId int64, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	List(ctx context.Context, chatbotId int64) ([]*dto.SessionResponse, error)
	Show(ctx context.Context, chatbotId int64, sessionId string) (*dto.SessionDetailResponse, error)
	Delete(ctx context.Context, chatbotId int64, sessionId string) error
}

type sessionService struct {
	store  contract.EntityStore
	events IDomainEventPublisher
	mapper *mapper.SessionMapper
	logger logger.ILogger
}

func NewSessionService(
	store contract.EntityStore,
	events IDomainEventPublisher,
	logger logger.ILogger,
) ISessionService {
	return &sessionService{
		store:  store,
		events: events,
		mapper: mapper.NewSessionMapper(),
		logger: logger,
	}
}

// Create fails with a conflict when the identifier is already taken, by any
// chatbot and in any letter case.
func (s *sessionService) Create(ctx context.Context, chatbotId int64, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.store.CreateSession(&entity.Session{
		ChatbotId:    chatbotId,
		SessionId:    req.SessionId,
		UserIdentity: req.UserIdentity,
		Title:        req.Title,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SessionService", "Session created", map[string]interface{}{
		"chatbot_id": chatbotId,
		"session_id": session.SessionId,
	})
	s.events.SessionCreated(ctx, session)

	return s.mapper.ToResponse(session, 0), nil
}

func (s *sessionService) List(ctx context.Context, chatbotId int64) ([]*dto.SessionResponse, error) {
	sessions, err := s.store.ListSessionsFor(chatbotId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		messages, err := s.store.ListMessagesFor(sess.Id)
		if err != nil {
			// Deleted in between.
			continue
		}
		res = append(res, s.mapper.ToResponse(sess, len(messages)))
	}
	return res, nil
}

func (s *sessionService) Show(ctx context.Context, chatbotId int64, sessionId string) (*dto.SessionDetailResponse, error) {
	conv, err := s.store.LoadConversation(chatbotId, sessionId)
	if err != nil {
		return nil, err
	}

	messages := make([]*entity.Message, 0, len(conv.Messages))
	for i := range conv.Messages {
		messages = append(messages, &conv.Messages[i])
	}
	return s.mapper.ToDetailResponse(&conv.Session, messages), nil
}

func (s *sessionService) Delete(ctx context.Context, chatbotId int64, sessionId string) error {
	session, err := findSession(s.store, chatbotId, sessionId)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSession(session.Id); err != nil {
		return err
	}

	s.events.SessionDeleted(ctx, session)
	return nil
}

// findSession resolves an external identifier within one chatbot.
func findSession(store contract.EntityStore, chatbotId int64, sessionId string) (*entity.Session, error) {
	if _, err := store.GetChatbot(chatbotId); err != nil {
		return nil, err
	}
	session, err := store.GetSessionByIdentifier(sessionId)
	if err != nil {
		return nil, err
	}
	if session.ChatbotId != chatbotId {
		return nil, apperror.NotFound("Session '%s' not found for chatbot %d", sessionId, chatbotId)
	}
	return session, nil
}
