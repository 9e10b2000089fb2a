package entity

import "time"

type Session struct {
	Id           int64
	ChatbotId    int64
	SessionId    string // external identifier, unique case-insensitively
	UserIdentity *string
	Title        *string
	CreatedAt    time.Time
}

// Conversation is a consistent point-in-time read of everything needed to
// answer in a session.
type Conversation struct {
	Chatbot      Chatbot
	Session      Session
	Messages     []Message
	ChatbotFiles []ChatbotFile
}
