package mapper

import (
	"chatbots-be/internal/dto"
	"chatbots-be/internal/entity"
)

type ChatbotMapper struct{}

func NewChatbotMapper() *ChatbotMapper {
	return &ChatbotMapper{}
}

func (m *ChatbotMapper) ToResponse(c *entity.Chatbot) *dto.ChatbotResponse {
	if c == nil {
		return nil
	}
	return &dto.ChatbotResponse{
		Id:                c.Id,
		Name:              c.Name,
		Description:       c.Description,
		Meta:              c.Meta,
		InitialResponseId: c.InitialResponseId,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func (m *ChatbotMapper) ToResponses(chatbots []*entity.Chatbot) []*dto.ChatbotResponse {
	out := make([]*dto.ChatbotResponse, 0, len(chatbots))
	for _, c := range chatbots {
		out = append(out, m.ToResponse(c))
	}
	return out
}

// ToUpdate keeps nil fields nil so the store leaves them untouched.
func (m *ChatbotMapper) ToUpdate(req *dto.UpdateChatbotRequest) entity.ChatbotUpdate {
	return entity.ChatbotUpdate{
		Name:              req.Name,
		Description:       req.Description,
		Meta:              req.Meta,
		InitialResponseId: req.InitialResponseId,
	}
}

func (m *ChatbotMapper) FileToResponse(f *entity.ChatbotFile) *dto.ChatbotFileResponse {
	if f == nil {
		return nil
	}
	return &dto.ChatbotFileResponse{
		Id:        f.Id,
		ChatbotId: f.ChatbotId,
		S3Key:     f.S3Key,
		FileName:  f.FileName,
		MimeType:  f.MimeType,
		FileSize:  f.FileSize,
		CreatedAt: f.CreatedAt,
		IndexedAt: f.IndexedAt,
	}
}
