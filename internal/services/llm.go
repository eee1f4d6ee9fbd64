package services

import (
	"context"

	"github.com/jwebster45206/npc-engine/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// Chat issues one chat-completion request and returns the parsed
	// response. A nil response with nil error means "no reply".
	Chat(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error)
}
