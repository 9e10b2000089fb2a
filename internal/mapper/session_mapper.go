package mapper

import (
	"chatbots-be/internal/dto"
	"chatbots-be/internal/entity"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToResponse(s *entity.Session, messageCount int) *dto.SessionResponse {
	if s == nil {
		return nil
	}
	return &dto.SessionResponse{
		Id:           s.Id,
		ChatbotId:    s.ChatbotId,
		SessionId:    s.SessionId,
		UserIdentity: s.UserIdentity,
		Title:        s.Title,
		CreatedAt:    s.CreatedAt,
		MessageCount: messageCount,
	}
}

func (m *SessionMapper) ToDetailResponse(s *entity.Session, messages []*entity.Message) *dto.SessionDetailResponse {
	return &dto.SessionDetailResponse{
		SessionResponse: *m.ToResponse(s, len(messages)),
		Messages:        m.MessagesToResponse(messages),
	}
}

func (m *SessionMapper) MessageToResponse(msg *entity.Message) *dto.MessageResponse {
	if msg == nil {
		return nil
	}
	files := make([]*dto.FileAttachmentResponse, 0, len(msg.Files))
	for i := range msg.Files {
		files = append(files, m.AttachmentToResponse(&msg.Files[i]))
	}
	return &dto.MessageResponse{
		Id:               msg.Id,
		SessionId:        msg.SessionId,
		SenderType:       string(msg.SenderType),
		Content:          msg.Content,
		ResponseId:       msg.ResponseId,
		ParentResponseId: msg.ParentResponseId,
		Metadata:         msg.Metadata,
		Usage:            msg.Usage,
		CreatedAt:        msg.CreatedAt,
		UpdatedAt:        msg.UpdatedAt,
		Files:            files,
	}
}

func (m *SessionMapper) MessagesToResponse(messages []*entity.Message) []*dto.MessageResponse {
	out := make([]*dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, m.MessageToResponse(msg))
	}
	return out
}

func (m *SessionMapper) AttachmentToResponse(a *entity.FileAttachment) *dto.FileAttachmentResponse {
	return &dto.FileAttachmentResponse{
		Id:        a.Id,
		S3Key:     a.S3Key,
		FileName:  a.FileName,
		MimeType:  a.MimeType,
		FileSize:  a.FileSize,
		CreatedAt: a.CreatedAt,
	}
}
