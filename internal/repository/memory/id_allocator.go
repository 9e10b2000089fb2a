package memory

import (
	"fmt"
	"sync/atomic"
)

type EntityKind int

const (
	KindChatbot EntityKind = iota
	KindChatbotFile
	KindSession
	KindMessage
	KindFileAttachment
	kindCount
)

func (k EntityKind) String() string {
	switch k {
	case KindChatbot:
		return "chatbot"
	case KindChatbotFile:
		return "chatbot_file"
	case KindSession:
		return "session"
	case KindMessage:
		return "message"
	case KindFileAttachment:
		return "file_attachment"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IdAllocator hands out ids that are strictly increasing per kind and never
// reused for the lifetime of the allocator.
type IdAllocator struct {
	counters [kindCount]atomic.Int64
}

func NewIdAllocator() *IdAllocator {
	return &IdAllocator{}
}

func (a *IdAllocator) Next(kind EntityKind) int64 {
	if kind < 0 || kind >= kindCount {
		panic(fmt.Sprintf("memory: unknown entity kind %d", int(kind)))
	}
	return a.counters[kind].Add(1)
}
