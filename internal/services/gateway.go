package services

import (
	"context"
	"log/slog"

	"github.com/jwebster45206/npc-engine/pkg/chat"
)

// Gateway fronts an LLMService with a bounded worker pool so network
// calls never run on the caller's goroutine. A nil return means "no
// reply this turn"; failures are logged, never propagated.
type Gateway struct {
	svc           LLMService
	workers       chan struct{}
	historyWindow int
	logger        *slog.Logger
}

// NewGateway creates a gateway with the given worker pool size and
// history window (pairs of history sent per request).
func NewGateway(svc LLMService, workerCount, historyWindow int, logger *slog.Logger) *Gateway {
	if workerCount <= 0 {
		workerCount = 4
	}
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Gateway{
		svc:           svc,
		workers:       make(chan struct{}, workerCount),
		historyWindow: historyWindow,
		logger:        logger,
	}
}

// Request builds the message array ([system] + windowed history +
// optional pending user message), performs the call on a pool worker,
// and waits for the result. pendingUserMessage may be empty for
// reprompt rounds. Never panics past its boundary.
func (g *Gateway) Request(ctx context.Context, systemPrompt string, history *chat.History, pendingUserMessage string, toolList []chat.ToolDescriptor) *chat.ParsedResponse {
	messages := make([]chat.ChatMessage, 0, 2+g.historyWindow*2)
	messages = append(messages, chat.ChatMessage{Role: chat.ChatRoleSystem, Content: systemPrompt})
	messages = append(messages, history.Window(g.historyWindow)...)
	if pendingUserMessage != "" {
		messages = append(messages, chat.ChatMessage{Role: chat.ChatRoleUser, Content: pendingUserMessage})
	}

	resultCh := make(chan *chat.ParsedResponse, 1)

	select {
	case g.workers <- struct{}{}:
	case <-ctx.Done():
		g.logger.Warn("Gateway request cancelled waiting for worker", "error", ctx.Err())
		return nil
	}

	go func() {
		defer func() { <-g.workers }()
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("Panic in LLM request", "panic", r)
				resultCh <- nil
			}
		}()

		resp, err := g.svc.Chat(ctx, messages, toolList)
		if err != nil {
			g.logger.Error("LLM request failed", "error", err)
			resultCh <- nil
			return
		}
		resultCh <- resp
	}()

	select {
	case resp := <-resultCh:
		return resp
	case <-ctx.Done():
		g.logger.Warn("Gateway request cancelled", "error", ctx.Err())
		return nil
	}
}
