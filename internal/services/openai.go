package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/npc-engine/pkg/chat"
)

// ProviderSettings holds the immutable provider configuration. Loaded
// once at initialization.
type ProviderSettings struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	BaseURL     string
}

// OpenAIService implements LLMService against any OpenAI-compatible
// chat-completions endpoint.
type OpenAIService struct {
	settings   ProviderSettings
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*OpenAIService)(nil)

// openAIChatRequest is the chat-completions request body.
type openAIChatRequest struct {
	Model       string             `json:"model"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []chat.ChatMessage `json:"messages"`
	Tools       []openAITool       `json:"tools,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// NewOpenAIService creates a chat-completions client.
func NewOpenAIService(settings ProviderSettings, logger *slog.Logger) *OpenAIService {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIService{
		settings:   settings,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Chat performs the network call and hands the raw body to the
// response parser. Non-2xx statuses and blank bodies yield nil.
func (s *OpenAIService) Chat(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error) {
	body, err := s.chatCompletion(ctx, messages, toolList)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	parsed := chat.Parse(body)
	return &parsed, nil
}

func (s *OpenAIService) chatCompletion(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (string, error) {
	chatReq := openAIChatRequest{
		Model:       s.settings.Model,
		Temperature: s.settings.Temperature,
		MaxTokens:   s.settings.MaxTokens,
		Messages:    messages,
		Tools:       buildToolList(toolList),
	}

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(s.settings.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.settings.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return string(body), nil
}

// buildToolList converts descriptors to the function-calling schema.
// Every parameter is modeled as a described string.
func buildToolList(descriptors []chat.ToolDescriptor) []openAITool {
	if len(descriptors) == 0 {
		return nil
	}
	out := make([]openAITool, 0, len(descriptors))
	for _, d := range descriptors {
		properties := make(map[string]any, len(d.Parameters))
		for name, desc := range d.Parameters {
			properties[name] = map[string]any{
				"type":        "string",
				"description": desc,
			}
		}
		out = append(out, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
				},
			},
		})
	}
	return out
}
