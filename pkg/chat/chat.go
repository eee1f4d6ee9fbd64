package chat

import "fmt"

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleNPC    = "assistant" // NPC
	ChatRoleSystem = "system"    // Persona and world context
)

// ChatMessage represents a single chat message sent to the LLM.
// The role/content structure is defined by the chat-completions API.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// HistoryEntry is one line of a conversation session, owned by the session.
type HistoryEntry struct {
	IsUser  bool   `json:"is_user"`
	Content string `json:"content"`
}

// ToolCall is a single tool invocation requested by the model.
// Immutable once parsed.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of executing one tool call. Immutable.
type ToolResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// ToolDescriptor describes a tool as exposed to the model.
// All parameters are modeled as named strings. Descriptors are
// registered once at startup and never mutated at runtime.
type ToolDescriptor struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// ParsedResponse is the normalized form of any provider payload.
type ParsedResponse struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the model requested any tools.
func (p *ParsedResponse) HasToolCalls() bool {
	return len(p.ToolCalls) > 0
}

// FailureResult builds a uniform failure result for a tool call.
func FailureResult(reason string) ToolResult {
	return ToolResult{Success: false, Message: reason}
}

// History is an ordered conversation transcript trimmed to a maximum
// number of user/assistant pairs after every append (oldest dropped
// first). Not safe for concurrent use; the session registry serializes
// access per actor.
type History struct {
	entries  []HistoryEntry
	maxPairs int
}

// NewHistory creates a history capped at maxPairs user/assistant pairs.
func NewHistory(maxPairs int) *History {
	if maxPairs <= 0 {
		maxPairs = 20
	}
	return &History{maxPairs: maxPairs}
}

// Append adds one entry and trims the oldest entries beyond the cap.
func (h *History) Append(isUser bool, content string) {
	h.entries = append(h.entries, HistoryEntry{IsUser: isUser, Content: content})
	if max := h.maxPairs * 2; len(h.entries) > max {
		h.entries = h.entries[len(h.entries)-max:]
	}
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the transcript.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clone returns an independent copy of the history.
func (h *History) Clone() *History {
	return &History{
		entries:  append([]HistoryEntry(nil), h.entries...),
		maxPairs: h.maxPairs,
	}
}

// Window returns the last limit pairs as chat messages, oldest first.
// limit <= 0 returns the full transcript.
func (h *History) Window(limit int) []ChatMessage {
	entries := h.entries
	if limit > 0 && len(entries) > limit*2 {
		entries = entries[len(entries)-limit*2:]
	}
	msgs := make([]ChatMessage, 0, len(entries))
	for _, e := range entries {
		role := ChatRoleNPC
		if e.IsUser {
			role = ChatRoleUser
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: e.Content})
	}
	return msgs
}

// ValidateMessage checks a user message before it enters a session.
func ValidateMessage(message string) error {
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
