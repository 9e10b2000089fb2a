package dto

import (
	"time"

	"chatbots-be/pkg/metadata"
)

type CreateChatbotRequest struct {
	Name              string        `json:"name" validate:"required,min=1,max=255"`
	Description       *string       `json:"description"`
	Meta              *metadata.Map `json:"meta" validate:"required"`
	InitialResponseId string        `json:"initial_response_id" validate:"required,min=1"`
}

// UpdateChatbotRequest is a partial update; omitted fields keep their value.
type UpdateChatbotRequest struct {
	Name              *string       `json:"name" validate:"omitempty,min=1,max=255"`
	Description       *string       `json:"description"`
	Meta              *metadata.Map `json:"meta"`
	InitialResponseId *string       `json:"initial_response_id" validate:"omitempty,min=1"`
}

type ChatbotResponse struct {
	Id                int64         `json:"id"`
	Name              string        `json:"name"`
	Description       *string       `json:"description"`
	Meta              *metadata.Map `json:"meta"`
	InitialResponseId string        `json:"initial_response_id"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
