package relay

import (
	"fmt"
	"strings"

	"chatbots-be/internal/entity"
	"chatbots-be/pkg/llm"
	"chatbots-be/pkg/metadata"

	"github.com/google/uuid"
)

const (
	FallbackModel  = "gpt-4.1-mini"
	responseFormat = "auto"
)

// NewResponseId returns a fresh correlation id for one answer of a chatbot.
func NewResponseId(chatbotId int64) string {
	return fmt.Sprintf("chatbot-%d-response-%s", chatbotId, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// RequestBuilder turns a conversation snapshot into an upstream request.
// Build has no side effects; the caller supplies the response id.
type RequestBuilder struct {
	defaultModel string
}

func NewRequestBuilder(defaultModel string) *RequestBuilder {
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = FallbackModel
	}
	return &RequestBuilder{defaultModel: defaultModel}
}

func (b *RequestBuilder) Build(conv *entity.Conversation, responseId string) *llm.ResponseRequest {
	chatbot := conv.Chatbot

	req := &llm.ResponseRequest{
		Model:       b.model(chatbot.Meta),
		Input:       make([]llm.Message, 0, len(conv.Messages)+1),
		Attachments: make([]llm.Attachment, 0, len(conv.ChatbotFiles)),
		Metadata: llm.RequestMetadata{
			ChatbotId:         chatbot.Id,
			SessionId:         conv.Session.SessionId,
			ResponseId:        responseId,
			ChatbotResponseId: chatbot.InitialResponseId,
		},
		Stream:         true,
		ResponseFormat: responseFormat,
	}

	if instructions, ok := systemInstructions(&chatbot); ok {
		req.Input = append(req.Input, llm.Message{Role: llm.RoleSystem, Content: instructions})
	}

	// Chatbot files go first, regardless of whether indexing finished.
	for _, f := range conv.ChatbotFiles {
		req.Attachments = append(req.Attachments, llm.Attachment{
			FileId:      f.S3Key,
			DisplayName: f.FileName,
			Source:      llm.SourceChatbot,
			MimeType:    f.MimeType,
		})
	}

	for _, m := range conv.Messages {
		req.Input = append(req.Input, llm.Message{Role: roleFor(m.SenderType), Content: m.Content})

		for _, f := range m.Files {
			messageId := m.Id
			req.Attachments = append(req.Attachments, llm.Attachment{
				FileId:      f.S3Key,
				DisplayName: f.FileName,
				Source:      llm.SourceMessage,
				MimeType:    f.MimeType,
				MessageId:   &messageId,
			})
		}
	}

	if params, ok := metadata.ResponseParameters(chatbot.Meta); ok {
		req.Extra = params.Clone()
	}

	return req
}

func (b *RequestBuilder) model(meta *metadata.Map) string {
	if model, ok := metadata.Model(meta); ok {
		return model
	}
	return b.defaultModel
}

// systemInstructions: meta "instructions", then meta "system_prompt", then
// the description.
func systemInstructions(chatbot *entity.Chatbot) (string, bool) {
	if s, ok := metadata.Instructions(chatbot.Meta); ok {
		return s, true
	}
	if chatbot.Description != nil && strings.TrimSpace(*chatbot.Description) != "" {
		return *chatbot.Description, true
	}
	return "", false
}

func roleFor(sender entity.SenderType) string {
	switch sender {
	case entity.SenderAssistant:
		return llm.RoleAssistant
	case entity.SenderSystem:
		return llm.RoleSystem
	default:
		return llm.RoleUser
	}
}
