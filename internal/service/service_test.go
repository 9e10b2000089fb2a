package service

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"
	"time"

	"chatbots-be/internal/dto"
	"chatbots-be/internal/entity"
	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/repository/memory"
	"chatbots-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func newStoreWithFile(t *testing.T) (*memory.EntityStore, *entity.ChatbotFile) {
	t.Helper()
	store := memory.NewEntityStore(memory.NewIdAllocator())
	bot, err := store.CreateChatbot(&entity.Chatbot{Name: "Docs", InitialResponseId: "resp-0"})
	require.NoError(t, err)
	file, err := store.AddChatbotFile(&entity.ChatbotFile{ChatbotId: bot.Id, S3Key: "chatbots/1/files/a.txt", FileName: "a.txt"})
	require.NoError(t, err)
	return store, file
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func TestProcessMessageMarksFileIndexed(t *testing.T) {
	store, file := newStoreWithFile(t)
	pub := &recordingPublisher{}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cs := NewConsumerService(nil, "jobs", store, NewDomainEventPublisher(pub, logger.NewNopLogger()), logger.NewNopLogger()).(*consumerService)
	cs.now = func() time.Time { return at }

	payload, err := json.Marshal(dto.IndexChatbotFileMessage{ChatbotFileId: file.Id, ChatbotId: file.ChatbotId, FileName: file.FileName, Content: []byte("hello")})
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), payload)

	cs.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	stored, err := store.GetChatbotFile(file.Id)
	require.NoError(t, err)
	require.NotNil(t, stored.IndexedAt)
	assert.Equal(t, at, *stored.IndexedAt)
	assert.Equal(t, []string{events.TypeChatbotFileIndexed}, pub.types())
}

func TestProcessMessageSkipsDeletedFile(t *testing.T) {
	store, file := newStoreWithFile(t)
	require.NoError(t, store.DeleteChatbotFile(file.Id))
	pub := &recordingPublisher{}

	cs := NewConsumerService(nil, "jobs", store, NewDomainEventPublisher(pub, logger.NewNopLogger()), logger.NewNopLogger()).(*consumerService)

	payload, err := json.Marshal(dto.IndexChatbotFileMessage{ChatbotFileId: file.Id})
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), payload)
	cs.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Empty(t, pub.types())
}

func TestProcessMessageDropsMalformedJob(t *testing.T) {
	store, file := newStoreWithFile(t)
	cs := NewConsumerService(nil, "jobs", store, NewDomainEventPublisher(nil, logger.NewNopLogger()), logger.NewNopLogger()).(*consumerService)

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	cs.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	stored, err := store.GetChatbotFile(file.Id)
	require.NoError(t, err)
	assert.Nil(t, stored.IndexedAt)
}

func TestDownloadURL(t *testing.T) {
	store, file := newStoreWithFile(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc := NewFileService(store, memory.NewDownloadURLRepository(time.Minute), "bucket.test/", 15*time.Minute).(*fileService)
	svc.now = func() time.Time { return now }

	first, err := svc.DownloadURL(context.Background(), file.Id)
	require.NoError(t, err)
	assert.Equal(t, file.Id, first.FileId)
	assert.Equal(t, now.Add(15*time.Minute), first.ExpiresAt)
	assert.Regexp(t, regexp.MustCompile(`^https://bucket\.test/chatbots%2F1%2Ffiles%2Fa\.txt\?signature=[0-9a-f]{32}&expires=\d+$`), first.DownloadUrl)

	again, err := svc.DownloadURL(context.Background(), file.Id)
	require.NoError(t, err)
	assert.Equal(t, first.DownloadUrl, again.DownloadUrl)

	_, err = svc.DownloadURL(context.Background(), 999)
	assert.Equal(t, apperror.ErrNotFound, apperror.KindOf(err))
}

func TestChatbotServicePublishesLifecycleEvents(t *testing.T) {
	store := memory.NewEntityStore(memory.NewIdAllocator())
	pub := &recordingPublisher{}
	svc := NewChatbotService(store, NewDomainEventPublisher(pub, logger.NewNopLogger()), logger.NewNopLogger())

	created, err := svc.Create(context.Background(), &dto.CreateChatbotRequest{Name: "Support", InitialResponseId: "resp-0"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), created.Id))

	assert.Equal(t, []string{events.TypeChatbotCreated, events.TypeChatbotDeleted}, pub.types())

	err = svc.Delete(context.Background(), created.Id)
	assert.Equal(t, apperror.ErrNotFound, apperror.KindOf(err))
}
