package entity

import (
	"time"

	"chatbots-be/pkg/metadata"
)

type Chatbot struct {
	Id                int64
	Name              string
	Description       *string
	Meta              *metadata.Map
	InitialResponseId string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ChatbotUpdate carries a partial update; nil fields are left untouched.
type ChatbotUpdate struct {
	Name              *string
	Description       *string
	Meta              *metadata.Map
	InitialResponseId *string
}

type ChatbotFile struct {
	Id        int64
	ChatbotId int64
	S3Key     string
	FileName  string
	MimeType  *string
	FileSize  *int64
	CreatedAt time.Time
	IndexedAt *time.Time
}

func (f *ChatbotFile) IsIndexed() bool {
	return f.IndexedAt != nil
}
