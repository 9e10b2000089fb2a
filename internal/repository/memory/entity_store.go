package memory

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"chatbots-be/internal/entity"
	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/pkg/metadata"

	"github.com/google/uuid"
)

// EntityStore is the volatile, process-local implementation of
// contract.EntityStore.
//
// A single RWMutex guards every map. Writers hold it for the whole operation,
// so an entity and its secondary indexes (identifier index, per-session
// message order, per-message attachments) always change together and a
// cascade is never observed half applied. Nothing in here performs I/O while
// the lock is held.
type EntityStore struct {
	mu  sync.RWMutex
	ids *IdAllocator
	now func() time.Time

	chatbots     map[int64]*entity.Chatbot
	chatbotFiles map[int64]*entity.ChatbotFile
	sessions     map[int64]*entity.Session
	messages     map[int64]*entity.Message
	attachments  map[int64]*entity.FileAttachment

	// lower-cased external identifier -> session id
	sessionIndex map[string]int64
	// session id -> message ids in append order
	sessionMessages map[int64][]int64
	// message id -> attachment ids in append order
	messageAttachments map[int64][]int64
}

func NewEntityStore(ids *IdAllocator) *EntityStore {
	if ids == nil {
		ids = NewIdAllocator()
	}
	return &EntityStore{
		ids:                ids,
		now:                func() time.Time { return time.Now().UTC() },
		chatbots:           make(map[int64]*entity.Chatbot),
		chatbotFiles:       make(map[int64]*entity.ChatbotFile),
		sessions:           make(map[int64]*entity.Session),
		messages:           make(map[int64]*entity.Message),
		attachments:        make(map[int64]*entity.FileAttachment),
		sessionIndex:       make(map[string]int64),
		sessionMessages:    make(map[int64][]int64),
		messageAttachments: make(map[int64][]int64),
	}
}

func identifierKey(sessionId string) string {
	return strings.ToLower(sessionId)
}

// Chatbots

func (s *EntityStore) CreateChatbot(chatbot *entity.Chatbot) (*entity.Chatbot, error) {
	now := s.now()
	stored := copyChatbot(chatbot)
	if stored.Meta == nil {
		stored.Meta = metadata.NewMap()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored.Id = s.ids.Next(KindChatbot)
	s.chatbots[stored.Id] = stored
	return copyChatbot(stored), nil
}

func (s *EntityStore) GetChatbot(id int64) (*entity.Chatbot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chatbots[id]
	if !ok {
		return nil, apperror.NotFound("Chatbot %d not found", id)
	}
	return copyChatbot(c), nil
}

func (s *EntityStore) ListChatbots() []*entity.Chatbot {
	s.mu.RLock()
	out := make([]*entity.Chatbot, 0, len(s.chatbots))
	for _, c := range s.chatbots {
		out = append(out, copyChatbot(c))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *entity.Chatbot) int { return cmp.Compare(a.Id, b.Id) })
	return out
}

func (s *EntityStore) UpdateChatbot(id int64, update entity.ChatbotUpdate) (*entity.Chatbot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chatbots[id]
	if !ok {
		return nil, apperror.NotFound("Chatbot %d not found", id)
	}

	next := copyChatbot(c)
	if update.Name != nil {
		next.Name = *update.Name
	}
	if update.Description != nil {
		next.Description = cloneString(update.Description)
	}
	if update.Meta != nil {
		next.Meta = update.Meta.Clone()
	}
	if update.InitialResponseId != nil {
		next.InitialResponseId = *update.InitialResponseId
	}
	next.UpdatedAt = s.now()

	s.chatbots[id] = next
	return copyChatbot(next), nil
}

func (s *EntityStore) DeleteChatbot(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chatbots[id]; !ok {
		return apperror.NotFound("Chatbot %d not found", id)
	}

	for fileId, f := range s.chatbotFiles {
		if f.ChatbotId == id {
			delete(s.chatbotFiles, fileId)
		}
	}
	for _, sess := range s.sessions {
		if sess.ChatbotId == id {
			s.deleteSessionLocked(sess)
		}
	}
	delete(s.chatbots, id)
	return nil
}

// Chatbot files

func (s *EntityStore) AddChatbotFile(file *entity.ChatbotFile) (*entity.ChatbotFile, error) {
	stored := copyChatbotFile(file)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chatbots[stored.ChatbotId]; !ok {
		return nil, apperror.NotFound("Chatbot %d not found", stored.ChatbotId)
	}

	stored.Id = s.ids.Next(KindChatbotFile)
	s.chatbotFiles[stored.Id] = stored
	return copyChatbotFile(stored), nil
}

func (s *EntityStore) GetChatbotFile(id int64) (*entity.ChatbotFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.chatbotFiles[id]
	if !ok {
		return nil, apperror.NotFound("Chatbot file %d not found", id)
	}
	return copyChatbotFile(f), nil
}

// ListChatbotFilesFor returns the chatbot's files in creation order.
func (s *EntityStore) ListChatbotFilesFor(chatbotId int64) ([]*entity.ChatbotFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.chatbots[chatbotId]; !ok {
		return nil, apperror.NotFound("Chatbot %d not found", chatbotId)
	}
	return s.chatbotFilesLocked(chatbotId), nil
}

func (s *EntityStore) chatbotFilesLocked(chatbotId int64) []*entity.ChatbotFile {
	out := make([]*entity.ChatbotFile, 0)
	for _, f := range s.chatbotFiles {
		if f.ChatbotId == chatbotId {
			out = append(out, copyChatbotFile(f))
		}
	}
	slices.SortFunc(out, func(a, b *entity.ChatbotFile) int { return cmp.Compare(a.Id, b.Id) })
	return out
}

func (s *EntityStore) MarkChatbotFileIndexed(id int64, at time.Time) (*entity.ChatbotFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.chatbotFiles[id]
	if !ok {
		return nil, apperror.NotFound("Chatbot file %d not found", id)
	}
	next := copyChatbotFile(f)
	next.IndexedAt = &at
	s.chatbotFiles[id] = next
	return copyChatbotFile(next), nil
}

func (s *EntityStore) DeleteChatbotFile(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chatbotFiles[id]; !ok {
		return apperror.NotFound("Chatbot file %d not found", id)
	}
	delete(s.chatbotFiles, id)
	return nil
}

// Sessions

func (s *EntityStore) CreateSession(session *entity.Session) (*entity.Session, error) {
	if strings.TrimSpace(session.SessionId) == "" {
		return nil, apperror.ValidationField("session_id", "session_id is required")
	}

	stored := copySession(session)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	key := identifierKey(stored.SessionId)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chatbots[stored.ChatbotId]; !ok {
		return nil, apperror.NotFound("Chatbot %d not found", stored.ChatbotId)
	}
	if existing, taken := s.sessionIndex[key]; taken {
		return nil, apperror.Conflict("Session identifier '%s' is already used by session %d", stored.SessionId, existing)
	}

	stored.Id = s.ids.Next(KindSession)
	s.sessions[stored.Id] = stored
	s.sessionIndex[key] = stored.Id
	return copySession(stored), nil
}

func (s *EntityStore) GetSession(id int64) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperror.NotFound("Session %d not found", id)
	}
	return copySession(sess), nil
}

func (s *EntityStore) GetSessionByIdentifier(sessionId string) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessionByIdentifierLocked(sessionId)
	if !ok {
		return nil, apperror.NotFound("Session '%s' not found", sessionId)
	}
	return copySession(sess), nil
}

func (s *EntityStore) sessionByIdentifierLocked(sessionId string) (*entity.Session, bool) {
	id, ok := s.sessionIndex[identifierKey(sessionId)]
	if !ok {
		return nil, false
	}
	sess, ok := s.sessions[id]
	return sess, ok
}

// ListSessionsFor returns the chatbot's sessions in creation order.
func (s *EntityStore) ListSessionsFor(chatbotId int64) ([]*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.chatbots[chatbotId]; !ok {
		return nil, apperror.NotFound("Chatbot %d not found", chatbotId)
	}

	out := make([]*entity.Session, 0)
	for _, sess := range s.sessions {
		if sess.ChatbotId == chatbotId {
			out = append(out, copySession(sess))
		}
	}
	slices.SortFunc(out, func(a, b *entity.Session) int { return cmp.Compare(a.Id, b.Id) })
	return out, nil
}

func (s *EntityStore) DeleteSession(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return apperror.NotFound("Session %d not found", id)
	}
	s.deleteSessionLocked(sess)
	return nil
}

func (s *EntityStore) deleteSessionLocked(sess *entity.Session) {
	key := identifierKey(sess.SessionId)
	if s.sessionIndex[key] == sess.Id {
		delete(s.sessionIndex, key)
	}
	for _, messageId := range s.sessionMessages[sess.Id] {
		for _, attachmentId := range s.messageAttachments[messageId] {
			delete(s.attachments, attachmentId)
		}
		delete(s.messageAttachments, messageId)
		delete(s.messages, messageId)
	}
	delete(s.sessionMessages, sess.Id)
	delete(s.sessions, sess.Id)
}

// Messages

func (s *EntityStore) AddMessage(message *entity.Message) (*entity.Message, error) {
	now := s.now()
	stored := copyMessage(message)
	files := stored.Files
	stored.Files = nil
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[stored.SessionId]; !ok {
		return nil, apperror.NotFound("Session %d not found", stored.SessionId)
	}

	stored.Id = s.ids.Next(KindMessage)
	s.messages[stored.Id] = stored
	s.sessionMessages[stored.SessionId] = append(s.sessionMessages[stored.SessionId], stored.Id)

	for i := range files {
		att := files[i]
		att.MessageId = stored.Id
		if att.S3Key == "" {
			att.S3Key = fmt.Sprintf("messages/%d/files/%s", stored.Id, uuid.NewString())
		}
		if att.CreatedAt.IsZero() {
			att.CreatedAt = now
		}
		s.insertAttachmentLocked(&att)
	}

	return s.messageSnapshotLocked(stored), nil
}

func (s *EntityStore) GetMessage(id int64) (*entity.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, apperror.NotFound("Message %d not found", id)
	}
	return s.messageSnapshotLocked(m), nil
}

// ListMessagesFor returns the conversation in append order, attachments
// included.
func (s *EntityStore) ListMessagesFor(sessionId int64) ([]*entity.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionId]; !ok {
		return nil, apperror.NotFound("Session %d not found", sessionId)
	}
	return s.sessionMessagesLocked(sessionId), nil
}

func (s *EntityStore) sessionMessagesLocked(sessionId int64) []*entity.Message {
	ids := s.sessionMessages[sessionId]
	out := make([]*entity.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.messageSnapshotLocked(s.messages[id]))
	}
	return out
}

func (s *EntityStore) messageSnapshotLocked(m *entity.Message) *entity.Message {
	out := copyMessage(m)
	ids := s.messageAttachments[m.Id]
	if len(ids) > 0 {
		out.Files = make([]entity.FileAttachment, 0, len(ids))
		for _, id := range ids {
			out.Files = append(out.Files, *copyAttachment(s.attachments[id]))
		}
	}
	return out
}

// File attachments

func (s *EntityStore) AddFileAttachment(attachment *entity.FileAttachment) (*entity.FileAttachment, error) {
	stored := copyAttachment(attachment)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[stored.MessageId]; !ok {
		return nil, apperror.NotFound("Message %d not found", stored.MessageId)
	}
	s.insertAttachmentLocked(stored)
	return copyAttachment(stored), nil
}

func (s *EntityStore) insertAttachmentLocked(att *entity.FileAttachment) {
	att.Id = s.ids.Next(KindFileAttachment)
	stored := copyAttachment(att)
	s.attachments[stored.Id] = stored
	s.messageAttachments[stored.MessageId] = append(s.messageAttachments[stored.MessageId], stored.Id)
}

func (s *EntityStore) GetFileAttachment(id int64) (*entity.FileAttachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	att, ok := s.attachments[id]
	if !ok {
		return nil, apperror.NotFound("File %d not found", id)
	}
	return copyAttachment(att), nil
}

// Conversation

func (s *EntityStore) LoadConversation(chatbotId int64, sessionId string) (*entity.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chatbots[chatbotId]
	if !ok {
		return nil, apperror.NotFound("Chatbot %d not found", chatbotId)
	}
	sess, ok := s.sessionByIdentifierLocked(sessionId)
	if !ok || sess.ChatbotId != chatbotId {
		return nil, apperror.NotFound("Session '%s' not found for chatbot %d", sessionId, chatbotId)
	}

	conv := &entity.Conversation{
		Chatbot: *copyChatbot(c),
		Session: *copySession(sess),
	}
	for _, m := range s.sessionMessagesLocked(sess.Id) {
		conv.Messages = append(conv.Messages, *m)
	}
	for _, f := range s.chatbotFilesLocked(chatbotId) {
		conv.ChatbotFiles = append(conv.ChatbotFiles, *f)
	}
	return conv, nil
}

// copies

func copyChatbot(c *entity.Chatbot) *entity.Chatbot {
	out := *c
	out.Description = cloneString(c.Description)
	out.Meta = c.Meta.Clone()
	return &out
}

func copyChatbotFile(f *entity.ChatbotFile) *entity.ChatbotFile {
	out := *f
	out.MimeType = cloneString(f.MimeType)
	out.FileSize = cloneInt64(f.FileSize)
	if f.IndexedAt != nil {
		t := *f.IndexedAt
		out.IndexedAt = &t
	}
	return &out
}

func copySession(sess *entity.Session) *entity.Session {
	out := *sess
	out.UserIdentity = cloneString(sess.UserIdentity)
	out.Title = cloneString(sess.Title)
	return &out
}

func copyMessage(m *entity.Message) *entity.Message {
	out := *m
	out.ResponseId = cloneInt64(m.ResponseId)
	out.ParentResponseId = cloneInt64(m.ParentResponseId)
	out.Metadata = m.Metadata.Clone()
	out.Usage = m.Usage.Clone()
	if m.Files != nil {
		out.Files = make([]entity.FileAttachment, len(m.Files))
		for i := range m.Files {
			out.Files[i] = *copyAttachment(&m.Files[i])
		}
	}
	return &out
}

func copyAttachment(a *entity.FileAttachment) *entity.FileAttachment {
	out := *a
	out.MimeType = cloneString(a.MimeType)
	out.FileSize = cloneInt64(a.FileSize)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
