// Package loop drives the bounded request / tool-execute / reprompt
// protocol for one user turn.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/npc-engine/internal/dispatch"
	"github.com/jwebster45206/npc-engine/internal/services"
	"github.com/jwebster45206/npc-engine/internal/tools"
	"github.com/jwebster45206/npc-engine/pkg/chat"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

const (
	DefaultMaxIterations       = 3
	DefaultMaxToolsPerResponse = 3
)

// Loop runs one user turn against the gateway and dispatcher.
type Loop struct {
	gateway       *services.Gateway
	dispatcher    *dispatch.Dispatcher
	registry      *tools.Registry
	maxIterations int
	maxTools      int
	logger        *slog.Logger
}

func New(gateway *services.Gateway, dispatcher *dispatch.Dispatcher, registry *tools.Registry, maxIterations, maxTools int, logger *slog.Logger) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if maxTools <= 0 {
		maxTools = DefaultMaxToolsPerResponse
	}
	return &Loop{
		gateway:       gateway,
		dispatcher:    dispatcher,
		registry:      registry,
		maxIterations: maxIterations,
		maxTools:      maxTools,
		logger:        logger,
	}
}

// Run processes one user message. It terminates within maxIterations
// reprompt rounds even if the model keeps requesting tools. Returns
// the final text and whether a response was obtained at all; a false
// ok means "no reply this turn" and leaves the history untouched.
func (l *Loop) Run(ctx context.Context, systemPrompt string, history *chat.History, userMessage string, entity world.Entity, actor world.Actor) (string, bool) {
	toolList := l.registry.EnabledDescriptors()

	resp := l.gateway.Request(ctx, systemPrompt, history, userMessage, toolList)
	if resp == nil {
		return "", false
	}

	history.Append(true, userMessage)

	for iteration := 0; ; iteration++ {
		if !resp.HasToolCalls() || iteration >= l.maxIterations {
			history.Append(false, resp.Text)
			return resp.Text, true
		}

		calls := resp.ToolCalls
		if len(calls) > l.maxTools {
			l.logger.Debug("Truncating tool calls", "requested", len(calls), "max", l.maxTools)
			calls = calls[:l.maxTools]
		}

		history.Append(false, resp.Text)

		results := l.dispatcher.ExecuteBatch(ctx, calls, entity, actor)
		history.Append(true, formatResults(calls, results))

		lastText := resp.Text
		resp = l.gateway.Request(ctx, systemPrompt, history, "", toolList)
		if resp == nil {
			// Gateway failure mid-loop: fall back to the last known
			// text rather than erroring out of the turn.
			return lastText, true
		}
	}
}

// formatResults renders tool outcomes as context for the model's next
// turn.
func formatResults(calls []chat.ToolCall, results []chat.ToolResult) string {
	var sb strings.Builder
	sb.WriteString("[tool results]")
	for i, call := range calls {
		if i >= len(results) {
			break
		}
		r := results[i]
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		sb.WriteString(fmt.Sprintf("\n%s: %s", call.Name, status))
		if r.Message != "" {
			sb.WriteString(" - " + r.Message)
		}
	}
	return sb.String()
}
