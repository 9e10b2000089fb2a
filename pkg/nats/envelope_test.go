package nats

import (
	"encoding/json"
	"testing"
	"time"

	"chatbots-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev := events.BaseEvent{
		Type:       events.TypeSessionCreated,
		Data:       map[string]interface{}{"session_id": "abc"},
		OccurredAt: at,
	}

	raw, err := json.Marshal(envelope{Type: ev.EventType(), OccurredAt: ev.Timestamp(), Data: ev.Payload()})
	require.NoError(t, err)

	got, err := decode(Subject(ev.Type), raw)
	require.NoError(t, err)
	assert.Equal(t, events.TypeSessionCreated, got.EventType())
	assert.Equal(t, "abc", got.Payload()["session_id"])
	assert.True(t, at.Equal(got.Timestamp()))
}

func TestDecodeFallsBackToSubject(t *testing.T) {
	got, err := decode("events.CHATBOT_DELETED", []byte(`{"data":{"chatbot_id":3}}`))
	require.NoError(t, err)
	assert.Equal(t, events.TypeChatbotDeleted, got.EventType())

	_, err = decode("events.X", []byte(`not json`))
	assert.Error(t, err)
}
