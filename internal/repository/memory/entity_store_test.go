package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"chatbots-be/internal/entity"
	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/pkg/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *EntityStore {
	return NewEntityStore(NewIdAllocator())
}

func mustChatbot(t *testing.T, s *EntityStore, name string) *entity.Chatbot {
	t.Helper()
	c, err := s.CreateChatbot(&entity.Chatbot{
		Name:              name,
		Meta:              metadata.NewMap().Set("model", metadata.String("gpt-test")),
		InitialResponseId: "init-1",
	})
	require.NoError(t, err)
	return c
}

func mustSession(t *testing.T, s *EntityStore, chatbotId int64, identifier string) *entity.Session {
	t.Helper()
	sess, err := s.CreateSession(&entity.Session{ChatbotId: chatbotId, SessionId: identifier})
	require.NoError(t, err)
	return sess
}

func mustMessage(t *testing.T, s *EntityStore, sessionId int64, content string, files ...string) *entity.Message {
	t.Helper()
	msg := &entity.Message{SessionId: sessionId, SenderType: entity.SenderUser, Content: content}
	for _, name := range files {
		msg.Files = append(msg.Files, entity.FileAttachment{S3Key: "messages/" + name, FileName: name})
	}
	stored, err := s.AddMessage(msg)
	require.NoError(t, err)
	return stored
}

func TestCreateAndGetChatbot(t *testing.T) {
	s := newTestStore()
	c := mustChatbot(t, s, "Support")

	assert.Equal(t, int64(1), c.Id)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)

	got, err := s.GetChatbot(c.Id)
	require.NoError(t, err)
	assert.Equal(t, "Support", got.Name)

	_, err = s.GetChatbot(99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateChatbotTouchesOnlyGivenFields(t *testing.T) {
	s := newTestStore()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }
	c := mustChatbot(t, s, "Before")

	later := start.Add(time.Hour)
	s.now = func() time.Time { return later }

	name := "After"
	updated, err := s.UpdateChatbot(c.Id, entity.ChatbotUpdate{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "init-1", updated.InitialResponseId)
	assert.Equal(t, start, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)
	model, ok := metadata.Model(updated.Meta)
	assert.True(t, ok)
	assert.Equal(t, "gpt-test", model)

	_, err = s.UpdateChatbot(42, entity.ChatbotUpdate{Name: &name})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteChatbotCascades(t *testing.T) {
	s := newTestStore()
	keep := mustChatbot(t, s, "Keep")
	doomed := mustChatbot(t, s, "Doomed")

	_, err := s.AddChatbotFile(&entity.ChatbotFile{ChatbotId: doomed.Id, S3Key: "k1", FileName: "a.pdf"})
	require.NoError(t, err)
	keptFile, err := s.AddChatbotFile(&entity.ChatbotFile{ChatbotId: keep.Id, S3Key: "k2", FileName: "b.pdf"})
	require.NoError(t, err)

	var doomedMessages, doomedAttachments []int64
	for i := 0; i < 3; i++ {
		sess := mustSession(t, s, doomed.Id, fmt.Sprintf("doomed-%d", i))
		msg := mustMessage(t, s, sess.Id, "hi", "x.txt", "y.txt")
		doomedMessages = append(doomedMessages, msg.Id)
		for _, f := range msg.Files {
			doomedAttachments = append(doomedAttachments, f.Id)
		}
	}
	keptSession := mustSession(t, s, keep.Id, "kept")
	keptMessage := mustMessage(t, s, keptSession.Id, "still here", "z.txt")

	require.NoError(t, s.DeleteChatbot(doomed.Id))

	_, err = s.GetChatbot(doomed.Id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// Nothing in any map refers to the deleted chatbot any more.
	s.mu.RLock()
	for _, f := range s.chatbotFiles {
		assert.NotEqual(t, doomed.Id, f.ChatbotId)
	}
	for _, sess := range s.sessions {
		assert.NotEqual(t, doomed.Id, sess.ChatbotId)
	}
	for _, id := range doomedMessages {
		assert.NotContains(t, s.messages, id)
		assert.NotContains(t, s.messageAttachments, id)
	}
	for _, id := range doomedAttachments {
		assert.NotContains(t, s.attachments, id)
	}
	assert.Len(t, s.sessionIndex, 1)
	assert.Len(t, s.sessionMessages, 1)
	s.mu.RUnlock()

	for i := 0; i < 3; i++ {
		_, err := s.GetSessionByIdentifier(fmt.Sprintf("doomed-%d", i))
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	}

	// The other chatbot is untouched.
	files, err := s.ListChatbotFilesFor(keep.Id)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, keptFile.Id, files[0].Id)

	msgs, err := s.ListMessagesFor(keptSession.Id)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, keptMessage.Id, msgs[0].Id)
	assert.Len(t, msgs[0].Files, 1)

	assert.ErrorIs(t, s.DeleteChatbot(doomed.Id), apperror.ErrNotFound)
}

func TestDeleteSessionLeavesSiblingIntact(t *testing.T) {
	s := newTestStore()
	c := mustChatbot(t, s, "A")
	first := mustSession(t, s, c.Id, "session-1")
	second := mustSession(t, s, c.Id, "session-2")

	mustMessage(t, s, first.Id, "first conversation", "a.txt")
	m1 := mustMessage(t, s, second.Id, "hello", "b.txt")
	m2 := mustMessage(t, s, second.Id, "again")

	require.NoError(t, s.DeleteSession(first.Id))

	_, err := s.GetSessionByIdentifier("session-1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = s.ListMessagesFor(first.Id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := s.GetSessionByIdentifier("SESSION-2")
	require.NoError(t, err)
	assert.Equal(t, second.Id, got.Id)

	msgs, err := s.ListMessagesFor(second.Id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, m1.Id, msgs[0].Id)
	assert.Equal(t, m2.Id, msgs[1].Id)
	require.Len(t, msgs[0].Files, 1)

	att, err := s.GetFileAttachment(msgs[0].Files[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", att.FileName)

	sessions, err := s.ListSessionsFor(c.Id)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.Id, sessions[0].Id)

	assert.ErrorIs(t, s.DeleteSession(first.Id), apperror.ErrNotFound)
}

func TestCreateSessionRejectsIdentifierCollision(t *testing.T) {
	s := newTestStore()
	a := mustChatbot(t, s, "A")
	b := mustChatbot(t, s, "B")
	original := mustSession(t, s, a.Id, "Customer-42")

	for _, identifier := range []string{"Customer-42", "customer-42", "CUSTOMER-42"} {
		_, err := s.CreateSession(&entity.Session{ChatbotId: b.Id, SessionId: identifier})
		assert.ErrorIs(t, err, apperror.ErrConflict, identifier)
	}

	// The original is still reachable through both indexes.
	byId, err := s.GetSession(original.Id)
	require.NoError(t, err)
	byIdentifier, err := s.GetSessionByIdentifier("customer-42")
	require.NoError(t, err)
	assert.Equal(t, byId.Id, byIdentifier.Id)
	assert.Equal(t, a.Id, byIdentifier.ChatbotId)

	// Once deleted, the identifier can be reused.
	require.NoError(t, s.DeleteSession(original.Id))
	reused, err := s.CreateSession(&entity.Session{ChatbotId: b.Id, SessionId: "customer-42"})
	require.NoError(t, err)
	assert.Greater(t, reused.Id, original.Id)
}

func TestForeignKeysMustExist(t *testing.T) {
	s := newTestStore()

	_, err := s.CreateSession(&entity.Session{ChatbotId: 7, SessionId: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = s.AddChatbotFile(&entity.ChatbotFile{ChatbotId: 7, S3Key: "k", FileName: "f"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = s.AddMessage(&entity.Message{SessionId: 7, Content: "hi"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = s.AddFileAttachment(&entity.FileAttachment{MessageId: 7, S3Key: "k", FileName: "f"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = s.CreateSession(&entity.Session{ChatbotId: 7, SessionId: "  "})
	assert.ErrorIs(t, err, apperror.ErrValidationFailed)

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.sessions)
	assert.Empty(t, s.sessionIndex)
	assert.Empty(t, s.chatbotFiles)
	assert.Empty(t, s.messages)
	assert.Empty(t, s.attachments)
}

func TestAddFileAttachmentAppendsToMessage(t *testing.T) {
	s := newTestStore()
	c := mustChatbot(t, s, "A")
	sess := mustSession(t, s, c.Id, "s")
	msg := mustMessage(t, s, sess.Id, "hi", "first.txt")

	att, err := s.AddFileAttachment(&entity.FileAttachment{MessageId: msg.Id, S3Key: "k", FileName: "second.txt"})
	require.NoError(t, err)
	assert.Equal(t, msg.Id, att.MessageId)

	got, err := s.GetMessage(msg.Id)
	require.NoError(t, err)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "first.txt", got.Files[0].FileName)
	assert.Equal(t, "second.txt", got.Files[1].FileName)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s := newTestStore()
	c := mustChatbot(t, s, "A")

	listed := s.ListChatbots()
	require.Len(t, listed, 1)

	// Mutating a returned copy does not leak into the store.
	listed[0].Name = "mutated"
	listed[0].Meta.Set("model", metadata.String("evil"))

	got, err := s.GetChatbot(c.Id)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	model, _ := metadata.Model(got.Meta)
	assert.Equal(t, "gpt-test", model)

	// Later writes do not change an already returned snapshot.
	mustChatbot(t, s, "B")
	name := "renamed"
	_, err = s.UpdateChatbot(c.Id, entity.ChatbotUpdate{Name: &name})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, "A", got.Name)

	sess := mustSession(t, s, c.Id, "s")
	mustMessage(t, s, sess.Id, "one")
	msgs, err := s.ListMessagesFor(sess.Id)
	require.NoError(t, err)
	mustMessage(t, s, sess.Id, "two")
	assert.Len(t, msgs, 1)
}

func TestMarkChatbotFileIndexed(t *testing.T) {
	s := newTestStore()
	c := mustChatbot(t, s, "A")
	f, err := s.AddChatbotFile(&entity.ChatbotFile{ChatbotId: c.Id, S3Key: "k", FileName: "doc.md"})
	require.NoError(t, err)
	assert.False(t, f.IsIndexed())

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	indexed, err := s.MarkChatbotFileIndexed(f.Id, at)
	require.NoError(t, err)
	require.NotNil(t, indexed.IndexedAt)
	assert.Equal(t, at, *indexed.IndexedAt)

	require.NoError(t, s.DeleteChatbotFile(f.Id))
	_, err = s.MarkChatbotFileIndexed(f.Id, at)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLoadConversation(t *testing.T) {
	s := newTestStore()
	c := mustChatbot(t, s, "A")
	other := mustChatbot(t, s, "B")
	sess := mustSession(t, s, c.Id, "Thread-1")
	mustSession(t, s, other.Id, "foreign")

	_, err := s.AddChatbotFile(&entity.ChatbotFile{ChatbotId: c.Id, S3Key: "k1", FileName: "one.pdf"})
	require.NoError(t, err)
	_, err = s.AddChatbotFile(&entity.ChatbotFile{ChatbotId: c.Id, S3Key: "k2", FileName: "two.pdf"})
	require.NoError(t, err)
	mustMessage(t, s, sess.Id, "first", "att.txt")
	mustMessage(t, s, sess.Id, "second")

	conv, err := s.LoadConversation(c.Id, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, c.Id, conv.Chatbot.Id)
	assert.Equal(t, sess.Id, conv.Session.Id)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "first", conv.Messages[0].Content)
	assert.Len(t, conv.Messages[0].Files, 1)
	require.Len(t, conv.ChatbotFiles, 2)
	assert.Equal(t, "one.pdf", conv.ChatbotFiles[0].FileName)

	_, err = s.LoadConversation(99, "thread-1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = s.LoadConversation(c.Id, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	// A session of another chatbot does not resolve.
	_, err = s.LoadConversation(c.Id, "foreign")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestConcurrentWritersKeepIndexesConsistent(t *testing.T) {
	s := newTestStore()
	c := mustChatbot(t, s, "A")

	const workers = 16
	const perWorker = 25

	var wg sync.WaitGroup
	var conflicts sync.Map
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// Every pair of workers fights over the same identifier.
				identifier := fmt.Sprintf("shared-%d-%d", w/2, i)
				sess, err := s.CreateSession(&entity.Session{ChatbotId: c.Id, SessionId: identifier})
				if err != nil {
					conflicts.Store(identifier, true)
					continue
				}
				if _, err := s.AddMessage(&entity.Message{SessionId: sess.Id, Content: "m"}); err != nil {
					t.Errorf("add message: %v", err)
				}
				if i%3 == 0 {
					if err := s.DeleteSession(sess.Id); err != nil {
						t.Errorf("delete session: %v", err)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	s.mu.RLock()
	defer s.mu.RUnlock()

	assert.Len(t, s.sessionIndex, len(s.sessions))
	for key, id := range s.sessionIndex {
		sess, ok := s.sessions[id]
		require.True(t, ok, "index entry %s points at a missing session", key)
		assert.Equal(t, key, identifierKey(sess.SessionId))
	}
	for _, m := range s.messages {
		assert.Contains(t, s.sessions, m.SessionId)
	}
	assert.Len(t, s.sessionMessages, len(s.sessions))
}
