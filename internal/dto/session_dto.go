package dto

import (
	"mime/multipart"
	"time"

	"chatbots-be/pkg/metadata"
)

type CreateSessionRequest struct {
	SessionId    string  `json:"session_id" validate:"required,min=1,max=50"`
	UserIdentity *string `json:"user_identity" validate:"omitempty,max=255"`
	Title        *string `json:"title" validate:"omitempty,max=255"`
}

type SessionResponse struct {
	Id           int64     `json:"id"`
	ChatbotId    int64     `json:"chatbot_id"`
	SessionId    string    `json:"session_id"`
	UserIdentity *string   `json:"user_identity"`
	Title        *string   `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

type SessionDetailResponse struct {
	SessionResponse
	Messages []*MessageResponse `json:"messages"`
}

type SendMessageRequest struct {
	Content          string        `json:"content" validate:"required,min=1"`
	SenderType       string        `json:"sender_type" validate:"required,oneof=user assistant system"`
	ResponseId       *int64        `json:"response_id"`
	ParentResponseId *int64        `json:"parent_response_id"`
	Metadata         *metadata.Map `json:"metadata"`
	Usage            *metadata.Map `json:"usage"`

	// Only set by multipart requests.
	Files            []*multipart.FileHeader `json:"-"`
	MetadataForFiles []FileMetadata          `json:"metadata_for_files" validate:"omitempty,dive"`
}

type MessageResponse struct {
	Id               int64                     `json:"id"`
	SessionId        int64                     `json:"session_id"`
	SenderType       string                    `json:"sender_type"`
	Content          string                    `json:"content"`
	ResponseId       *int64                    `json:"response_id"`
	ParentResponseId *int64                    `json:"parent_response_id"`
	Metadata         *metadata.Map             `json:"metadata"`
	Usage            *metadata.Map             `json:"usage"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
	Files            []*FileAttachmentResponse `json:"files"`
}
