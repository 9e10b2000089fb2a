package service

import (
	"context"

	"chatbots-be/internal/dto"
	"chatbots-be/internal/entity"
	"chatbots-be/internal/mapper"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/repository/contract"
)

type IChatbotService interface {
	List(ctx context.Context) ([]*dto.ChatbotResponse, error)
	Show(ctx context.Context, id int64) (*dto.ChatbotResponse, error)
	Create(ctx context.Context, req *dto.CreateChatbotRequest) (*dto.ChatbotResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateChatbotRequest) (*dto.ChatbotResponse, error)
	Delete(ctx context.Context, id int64) error
}

type chatbotService struct {
	store  contract.EntityStore
	events IDomainEventPublisher
	mapper *mapper.ChatbotMapper
	logger logger.ILogger
}

func NewChatbotService(
	store contract.EntityStore,
	events IDomainEventPublisher,
	logger logger.ILogger,
) IChatbotService {
	return &chatbotService{
		store:  store,
		events: events,
		mapper: mapper.NewChatbotMapper(),
		logger: logger,
	}
}

func (s *chatbotService) List(ctx context.Context) ([]*dto.ChatbotResponse, error) {
	return s.mapper.ToResponses(s.store.ListChatbots()), nil
}

func (s *chatbotService) Show(ctx context.Context, id int64) (*dto.ChatbotResponse, error) {
	chatbot, err := s.store.GetChatbot(id)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToResponse(chatbot), nil
}

func (s *chatbotService) Create(ctx context.Context, req *dto.CreateChatbotRequest) (*dto.ChatbotResponse, error) {
	chatbot, err := s.store.CreateChatbot(&entity.Chatbot{
		Name:              req.Name,
		Description:       req.Description,
		Meta:              req.Meta,
		InitialResponseId: req.InitialResponseId,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ChatbotService", "Chatbot created", map[string]interface{}{
		"chatbot_id": chatbot.Id,
		"name":       chatbot.Name,
	})
	s.events.ChatbotCreated(ctx, chatbot)

	return s.mapper.ToResponse(chatbot), nil
}

func (s *chatbotService) Update(ctx context.Context, id int64, req *dto.UpdateChatbotRequest) (*dto.ChatbotResponse, error) {
	chatbot, err := s.store.UpdateChatbot(id, s.mapper.ToUpdate(req))
	if err != nil {
		return nil, err
	}
	return s.mapper.ToResponse(chatbot), nil
}

// Delete removes the chatbot together with its files and sessions.
func (s *chatbotService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteChatbot(id); err != nil {
		return err
	}

	s.logger.Info("ChatbotService", "Chatbot deleted", map[string]interface{}{"chatbot_id": id})
	s.events.ChatbotDeleted(ctx, id)
	return nil
}
