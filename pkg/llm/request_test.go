package llm

import (
	"encoding/json"
	"testing"

	"chatbots-be/pkg/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseRequestMarshalMergesExtra(t *testing.T) {
	extra, err := metadata.Parse([]byte(`{"temperature":0.3,"model":"override","tools":[{"type":"file_search"}]}`))
	require.NoError(t, err)

	req := &ResponseRequest{
		Model: "gpt-4.1-mini",
		Input: []Message{{Role: RoleUser, Content: "hi"}},
		Metadata: RequestMetadata{
			ChatbotId:         1,
			SessionId:         "s",
			ResponseId:        "r",
			ChatbotResponseId: "init",
		},
		Stream:         true,
		ResponseFormat: "auto",
		Extra:          extra,
	}

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	m, err := metadata.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"model", "input", "attachments", "metadata", "stream", "response_format", "temperature", "tools"},
		m.Keys())

	model, _ := m.GetString("model")
	assert.Equal(t, "override", model)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []interface{}{}, decoded["attachments"])
	assert.Equal(t, true, decoded["stream"])
	assert.Equal(t, 0.3, decoded["temperature"])
}

func TestResponseRequestMarshalWithoutExtra(t *testing.T) {
	mime := "text/plain"
	msgId := int64(4)
	req := &ResponseRequest{
		Model: "m",
		Attachments: []Attachment{
			{FileId: "k1", DisplayName: "a.txt", Source: SourceChatbot},
			{FileId: "k2", DisplayName: "b.txt", Source: SourceMessage, MimeType: &mime, MessageId: &msgId},
		},
	}

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model":"m",
		"input":[],
		"attachments":[
			{"file_id":"k1","display_name":"a.txt","source":"chatbot","mime_type":null},
			{"file_id":"k2","display_name":"b.txt","source":"message","mime_type":"text/plain","message_id":4}
		],
		"metadata":{"chatbot_id":0,"session_id":"","response_id":"","chatbot_response_id":""},
		"stream":false,
		"response_format":""
	}`, string(raw))
}
