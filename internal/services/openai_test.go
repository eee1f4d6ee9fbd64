package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/npc-engine/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testService(url string) *OpenAIService {
	return NewOpenAIService(ProviderSettings{
		APIKey:      "test-key",
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   256,
		BaseURL:     url,
	}, testLogger())
}

func TestOpenAIService_Chat(t *testing.T) {
	var captured openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"text\":\"hello there\"}"}}]}`))
	}))
	defer server.Close()

	svc := testService(server.URL)
	resp, err := svc.Chat(context.Background(),
		[]chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: "sys"}, {Role: chat.ChatRoleUser, Content: "hi"}},
		[]chat.ToolDescriptor{{Name: "wave", Description: "wave", Parameters: map[string]string{"target": "who to wave at"}}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp == nil || resp.Text != "hello there" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	if captured.Model != "test-model" {
		t.Errorf("Expected model in request, got %q", captured.Model)
	}
	if len(captured.Messages) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(captured.Messages))
	}
	if len(captured.Tools) != 1 || captured.Tools[0].Function.Name != "wave" {
		t.Errorf("Expected wave tool in request, got %+v", captured.Tools)
	}
}

func TestOpenAIService_ChatWithToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"On my way.","tool_calls":[{"function":{"name":"follow","arguments":"{}"}}]}}]}`))
	}))
	defer server.Close()

	resp, err := testService(server.URL).Chat(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Text != "On my way." {
		t.Errorf("Unexpected text %q", resp.Text)
	}
	if !resp.HasToolCalls() || resp.ToolCalls[0].Name != "follow" {
		t.Errorf("Expected follow tool call, got %+v", resp.ToolCalls)
	}
}

func TestOpenAIService_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := testService(server.URL).Chat(context.Background(), nil, nil); err == nil {
		t.Error("Expected error for non-2xx status")
	}
}

func TestOpenAIService_BlankBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := testService(server.URL).Chat(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Blank body should not be an error, got %v", err)
	}
	if resp != nil {
		t.Errorf("Expected nil response for blank body, got %+v", resp)
	}
}

func TestOpenAIService_ServerUnreachable(t *testing.T) {
	svc := testService("http://127.0.0.1:1")
	if _, err := svc.Chat(context.Background(), nil, nil); err == nil {
		t.Error("Expected error when server is unreachable")
	}
}

func TestBuildToolList(t *testing.T) {
	if out := buildToolList(nil); out != nil {
		t.Errorf("Expected nil for empty descriptors, got %+v", out)
	}

	out := buildToolList([]chat.ToolDescriptor{{
		Name:        "give_item",
		Description: "give an item",
		Parameters:  map[string]string{"item": "item name", "count": "how many"},
	}})
	if len(out) != 1 || out[0].Type != "function" {
		t.Fatalf("Unexpected tool list: %+v", out)
	}
	props, ok := out[0].Function.Parameters["properties"].(map[string]any)
	if !ok || len(props) != 2 {
		t.Errorf("Expected 2 properties, got %+v", out[0].Function.Parameters)
	}
}
