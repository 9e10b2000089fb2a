package entity

import (
	"time"

	"chatbots-be/pkg/metadata"
)

type SenderType string

const (
	SenderUser      SenderType = "user"
	SenderAssistant SenderType = "assistant"
	SenderSystem    SenderType = "system"
)

func (s SenderType) Valid() bool {
	switch s {
	case SenderUser, SenderAssistant, SenderSystem:
		return true
	}
	return false
}

type Message struct {
	Id               int64
	SessionId        int64
	SenderType       SenderType
	Content          string
	ResponseId       *int64
	ParentResponseId *int64
	Metadata         *metadata.Map
	Usage            *metadata.Map
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Files            []FileAttachment
}

type FileAttachment struct {
	Id        int64
	MessageId int64
	S3Key     string
	FileName  string
	MimeType  *string
	FileSize  *int64
	CreatedAt time.Time
}
