package chat

import (
	"fmt"
	"testing"
)

func TestHistory_TrimsOldestPairs(t *testing.T) {
	h := NewHistory(2)

	for i := 0; i < 5; i++ {
		h.Append(true, fmt.Sprintf("user %d", i))
		h.Append(false, fmt.Sprintf("npc %d", i))
	}

	if h.Len() != 4 {
		t.Fatalf("Expected 4 entries after trimming, got %d", h.Len())
	}
	entries := h.Entries()
	if entries[0].Content != "user 3" {
		t.Errorf("Expected oldest surviving entry 'user 3', got %q", entries[0].Content)
	}
	if entries[3].Content != "npc 4" {
		t.Errorf("Expected newest entry 'npc 4', got %q", entries[3].Content)
	}
}

func TestHistory_WindowLimitsPairs(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 6; i++ {
		h.Append(true, fmt.Sprintf("u%d", i))
		h.Append(false, fmt.Sprintf("a%d", i))
	}

	msgs := h.Window(2)
	if len(msgs) != 4 {
		t.Fatalf("Expected window of 4 messages, got %d", len(msgs))
	}
	if msgs[0].Role != ChatRoleUser || msgs[0].Content != "u4" {
		t.Errorf("Expected first window message u4, got %+v", msgs[0])
	}
	if msgs[3].Role != ChatRoleNPC || msgs[3].Content != "a5" {
		t.Errorf("Expected last window message a5, got %+v", msgs[3])
	}
}

func TestHistory_CloneIsIndependent(t *testing.T) {
	h := NewHistory(5)
	h.Append(true, "hello")

	c := h.Clone()
	c.Append(false, "reply")

	if h.Len() != 1 {
		t.Errorf("Expected original history untouched, got %d entries", h.Len())
	}
	if c.Len() != 2 {
		t.Errorf("Expected clone to have 2 entries, got %d", c.Len())
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage(""); err == nil {
		t.Error("Expected error for empty message")
	}
	if err := ValidateMessage("hi"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
