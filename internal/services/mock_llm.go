package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/npc-engine/pkg/chat"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	ChatFunc func(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error)

	// Track calls for testing
	ChatCalls []ChatCall

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages []chat.ChatMessage
	Tools    []chat.ToolDescriptor
}

var _ LLMService = (*MockLLM)(nil)

// NewMockLLM creates a new mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{
		ChatCalls: make([]ChatCall, 0),
	}
}

// Chat mocks response generation
func (m *MockLLM) Chat(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages, Tools: toolList})
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, toolList)
	}

	// Default behavior - plain text reply
	return &chat.ParsedResponse{Text: "mock response"}, nil
}

// CallCount returns the number of Chat calls so far.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}
