package loop

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jwebster45206/npc-engine/internal/cooldown"
	"github.com/jwebster45206/npc-engine/internal/dispatch"
	"github.com/jwebster45206/npc-engine/internal/services"
	"github.com/jwebster45206/npc-engine/internal/tools"
	"github.com/jwebster45206/npc-engine/pkg/chat"
	"github.com/jwebster45206/npc-engine/pkg/sim"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type countingTool struct {
	name     string
	executed atomic.Int32
}

func (c *countingTool) Descriptor() chat.ToolDescriptor {
	return chat.ToolDescriptor{Name: c.name, Description: "test tool", Category: tools.CategorySocial}
}

func (c *countingTool) Check(entity world.Entity, actor world.Actor) error { return nil }

func (c *countingTool) Execute(ctx context.Context, entity world.Entity, actor world.Actor, args map[string]any) chat.ToolResult {
	c.executed.Add(1)
	return chat.ToolResult{Success: true, Message: "done"}
}

type fixture struct {
	mock   *services.MockLLM
	loop   *Loop
	entity *sim.Entity
	actor  *sim.Actor
	tool   *countingTool
}

func setup(t *testing.T, maxIterations, maxTools int) *fixture {
	t.Helper()

	w := sim.NewWorld()
	w.AddRegion("village", "the village")

	entity, err := sim.NewEntity("npc-1", "Mara", "farmer", world.Position{RegionKey: "village"})
	if err != nil {
		t.Fatalf("Failed to create entity: %v", err)
	}
	w.AddEntity(entity)
	actor := sim.NewActor("player-1", "Traveler", world.Position{RegionKey: "village"})
	w.AddActor(actor)

	tool := &countingTool{name: "wave"}
	registry := tools.NewRegistry()
	if err := registry.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	registry.SetConfigs(map[string]tools.Config{"wave": {Enabled: true}})

	executor := dispatch.NewExecutor(testLogger())
	t.Cleanup(func() { _ = executor.Shutdown(context.Background()) })
	dispatcher := dispatch.NewDispatcher(executor, w, registry, cooldown.NewMemoryStore(), time.Second, testLogger())

	mock := services.NewMockLLM()
	gateway := services.NewGateway(mock, 2, 10, testLogger())

	return &fixture{
		mock:   mock,
		loop:   New(gateway, dispatcher, registry, maxIterations, maxTools, testLogger()),
		entity: entity,
		actor:  actor,
		tool:   tool,
	}
}

func TestRun_PlainReply(t *testing.T) {
	f := setup(t, 3, 3)
	history := chat.NewHistory(20)

	text, ok := f.loop.Run(context.Background(), "system", history, "hello", f.entity, f.actor)
	if !ok {
		t.Fatal("Expected a reply")
	}
	if text != "mock response" {
		t.Errorf("Expected mock response, got %q", text)
	}

	// One user/assistant pair, nothing else.
	entries := history.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(entries))
	}
	if !entries[0].IsUser || entries[0].Content != "hello" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].IsUser || entries[1].Content != "mock response" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
}

func TestRun_ToolRoundThenReply(t *testing.T) {
	f := setup(t, 3, 3)
	history := chat.NewHistory(20)

	responses := []*chat.ParsedResponse{
		{Text: "let me wave", ToolCalls: []chat.ToolCall{{Name: "wave"}}},
		{Text: "there, I waved"},
	}
	call := 0
	f.mock.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error) {
		resp := responses[call]
		call++
		return resp, nil
	}

	text, ok := f.loop.Run(context.Background(), "system", history, "wave at me", f.entity, f.actor)
	if !ok || text != "there, I waved" {
		t.Fatalf("Expected second reply, got %q ok=%v", text, ok)
	}
	if f.tool.executed.Load() != 1 {
		t.Errorf("Expected 1 tool execution, got %d", f.tool.executed.Load())
	}

	// user, assistant text, tool results as user, final assistant.
	entries := history.Entries()
	if len(entries) != 4 {
		t.Fatalf("Expected 4 history entries, got %d", len(entries))
	}
	if entries[2].Content != "[tool results]\nwave: ok - done" {
		t.Errorf("Unexpected tool results entry: %q", entries[2].Content)
	}
}

func TestRun_TerminatesWhenModelAlwaysRequestsTools(t *testing.T) {
	maxIterations := 3
	f := setup(t, maxIterations, 3)
	history := chat.NewHistory(20)

	f.mock.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error) {
		return &chat.ParsedResponse{
			Text:      fmt.Sprintf("round %d", f.mock.CallCount()),
			ToolCalls: []chat.ToolCall{{Name: "wave"}},
		}, nil
	}

	_, ok := f.loop.Run(context.Background(), "system", history, "go", f.entity, f.actor)
	if !ok {
		t.Fatal("Expected a reply")
	}

	// Initial request plus one reprompt per iteration.
	if got := f.mock.CallCount(); got != maxIterations+1 {
		t.Errorf("Expected %d LLM calls, got %d", maxIterations+1, got)
	}
	if got := f.tool.executed.Load(); got != int32(maxIterations) {
		t.Errorf("Expected %d tool rounds, got %d", maxIterations, got)
	}
}

func TestRun_FirstRequestFailureLeavesHistoryUntouched(t *testing.T) {
	f := setup(t, 3, 3)
	history := chat.NewHistory(20)

	f.mock.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error) {
		return nil, fmt.Errorf("provider unavailable")
	}

	text, ok := f.loop.Run(context.Background(), "system", history, "hello", f.entity, f.actor)
	if ok || text != "" {
		t.Errorf("Expected no reply, got %q ok=%v", text, ok)
	}
	if history.Len() != 0 {
		t.Errorf("Expected untouched history, got %d entries", history.Len())
	}
}

func TestRun_MidLoopFailureFallsBackToLastText(t *testing.T) {
	f := setup(t, 3, 3)
	history := chat.NewHistory(20)

	call := 0
	f.mock.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error) {
		call++
		if call == 1 {
			return &chat.ParsedResponse{Text: "working on it", ToolCalls: []chat.ToolCall{{Name: "wave"}}}, nil
		}
		return nil, fmt.Errorf("provider unavailable")
	}

	text, ok := f.loop.Run(context.Background(), "system", history, "go", f.entity, f.actor)
	if !ok {
		t.Fatal("Expected the turn to still produce text")
	}
	if text != "working on it" {
		t.Errorf("Expected fallback to last text, got %q", text)
	}
	if f.tool.executed.Load() != 1 {
		t.Errorf("Expected the tool round to have run, got %d", f.tool.executed.Load())
	}
}

func TestRun_TruncatesToolCalls(t *testing.T) {
	maxTools := 2
	f := setup(t, 3, maxTools)
	history := chat.NewHistory(20)

	call := 0
	f.mock.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error) {
		call++
		if call == 1 {
			return &chat.ParsedResponse{
				Text: "lots of waving",
				ToolCalls: []chat.ToolCall{
					{Name: "wave"}, {Name: "wave"}, {Name: "wave"}, {Name: "wave"}, {Name: "wave"},
				},
			}, nil
		}
		return &chat.ParsedResponse{Text: "done"}, nil
	}

	if _, ok := f.loop.Run(context.Background(), "system", history, "go", f.entity, f.actor); !ok {
		t.Fatal("Expected a reply")
	}
	if got := f.tool.executed.Load(); got != int32(maxTools) {
		t.Errorf("Expected %d executions after truncation, got %d", maxTools, got)
	}
}

func TestRun_RepromptCarriesToolResults(t *testing.T) {
	f := setup(t, 3, 3)
	history := chat.NewHistory(20)

	call := 0
	f.mock.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage, toolList []chat.ToolDescriptor) (*chat.ParsedResponse, error) {
		call++
		if call == 1 {
			return &chat.ParsedResponse{Text: "waving", ToolCalls: []chat.ToolCall{{Name: "wave"}}}, nil
		}
		// Reprompt must see the tool results as the last user message.
		last := messages[len(messages)-1]
		if last.Role != chat.ChatRoleUser || last.Content != "[tool results]\nwave: ok - done" {
			t.Errorf("Unexpected reprompt tail: %+v", last)
		}
		return &chat.ParsedResponse{Text: "all done"}, nil
	}

	if _, ok := f.loop.Run(context.Background(), "system", history, "go", f.entity, f.actor); !ok {
		t.Fatal("Expected a reply")
	}
	if call != 2 {
		t.Errorf("Expected 2 LLM calls, got %d", call)
	}
}
