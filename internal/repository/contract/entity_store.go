package contract

import (
	"time"

	"chatbots-be/internal/entity"
)

// EntityStore owns every chatbot, session, message and file reference.
// Returned entities are copies: mutating them never changes the store, and
// later writes never change an already returned result.
//
// Errors carry apperror.ErrNotFound for missing ids (including a missing
// owner on insert) and apperror.ErrConflict for a taken session identifier.
// A call either applies completely or not at all.
type EntityStore interface {
	CreateChatbot(chatbot *entity.Chatbot) (*entity.Chatbot, error)
	GetChatbot(id int64) (*entity.Chatbot, error)
	ListChatbots() []*entity.Chatbot
	UpdateChatbot(id int64, update entity.ChatbotUpdate) (*entity.Chatbot, error)
	// DeleteChatbot also removes the chatbot's files and sessions, and
	// everything those sessions own.
	DeleteChatbot(id int64) error

	AddChatbotFile(file *entity.ChatbotFile) (*entity.ChatbotFile, error)
	GetChatbotFile(id int64) (*entity.ChatbotFile, error)
	ListChatbotFilesFor(chatbotId int64) ([]*entity.ChatbotFile, error)
	MarkChatbotFileIndexed(id int64, at time.Time) (*entity.ChatbotFile, error)
	DeleteChatbotFile(id int64) error

	CreateSession(session *entity.Session) (*entity.Session, error)
	GetSession(id int64) (*entity.Session, error)
	// GetSessionByIdentifier matches the external identifier case-insensitively.
	GetSessionByIdentifier(sessionId string) (*entity.Session, error)
	ListSessionsFor(chatbotId int64) ([]*entity.Session, error)
	DeleteSession(id int64) error

	// AddMessage appends to the session's conversation. Attachments present
	// in message.Files are stored in the same step; a blank S3Key becomes
	// messages/{messageId}/files/{uuid}.
	AddMessage(message *entity.Message) (*entity.Message, error)
	GetMessage(id int64) (*entity.Message, error)
	ListMessagesFor(sessionId int64) ([]*entity.Message, error)

	AddFileAttachment(attachment *entity.FileAttachment) (*entity.FileAttachment, error)
	GetFileAttachment(id int64) (*entity.FileAttachment, error)

	// LoadConversation reads a chatbot, one of its sessions by external
	// identifier, the session's messages and the chatbot's files as a single
	// consistent snapshot.
	LoadConversation(chatbotId int64, sessionId string) (*entity.Conversation, error)
}
