package llm

import (
	"encoding/json"

	"chatbots-be/pkg/metadata"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	SourceChatbot = "chatbot"
	SourceMessage = "message"
)

// Message is one role-tagged turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Attachment struct {
	FileId      string  `json:"file_id"`
	DisplayName string  `json:"display_name"`
	Source      string  `json:"source"`
	MimeType    *string `json:"mime_type"`
	MessageId   *int64  `json:"message_id,omitempty"`
}

type RequestMetadata struct {
	ChatbotId         int64  `json:"chatbot_id"`
	SessionId         string `json:"session_id"`
	ResponseId        string `json:"response_id"`
	ChatbotResponseId string `json:"chatbot_response_id"`
}

// ResponseRequest is the body of a streamed responses call.
type ResponseRequest struct {
	Model          string
	Input          []Message
	Attachments    []Attachment
	Metadata       RequestMetadata
	Stream         bool
	ResponseFormat string
	// Extra entries are merged into the top level of the JSON body and win
	// over the fields above on a key clash.
	Extra *metadata.Map
}

type responseRequestJSON struct {
	Model          string          `json:"model"`
	Input          []Message       `json:"input"`
	Attachments    []Attachment    `json:"attachments"`
	Metadata       RequestMetadata `json:"metadata"`
	Stream         bool            `json:"stream"`
	ResponseFormat string          `json:"response_format"`
}

func (r *ResponseRequest) MarshalJSON() ([]byte, error) {
	base := responseRequestJSON{
		Model:          r.Model,
		Input:          r.Input,
		Attachments:    r.Attachments,
		Metadata:       r.Metadata,
		Stream:         r.Stream,
		ResponseFormat: r.ResponseFormat,
	}
	if base.Input == nil {
		base.Input = []Message{}
	}
	if base.Attachments == nil {
		base.Attachments = []Attachment{}
	}

	raw, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	if r.Extra.Len() == 0 {
		return raw, nil
	}

	merged, err := metadata.Parse(raw)
	if err != nil {
		return nil, err
	}
	r.Extra.Range(func(key string, v metadata.Value) bool {
		merged.Set(key, v)
		return true
	})
	return merged.MarshalJSON()
}
