package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwebster45206/npc-engine/internal/cooldown"
	"github.com/jwebster45206/npc-engine/pkg/chat"
	"github.com/jwebster45206/npc-engine/pkg/sim"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

type stubTool struct {
	name     string
	checkErr error
	executed int
}

func (s *stubTool) Descriptor() chat.ToolDescriptor {
	return chat.ToolDescriptor{Name: s.name, Description: "stub", Category: CategorySocial}
}

func (s *stubTool) Check(entity world.Entity, actor world.Actor) error {
	return s.checkErr
}

func (s *stubTool) Execute(ctx context.Context, entity world.Entity, actor world.Actor, args map[string]any) chat.ToolResult {
	s.executed++
	return chat.ToolResult{Success: true, Message: "done"}
}

func testWorldPair(t *testing.T) (*sim.Entity, *sim.Actor) {
	t.Helper()
	entity, err := sim.NewEntity("npc-1", "Mara", "farmer", world.Position{RegionKey: "village"})
	if err != nil {
		t.Fatalf("Failed to create entity: %v", err)
	}
	actor := sim.NewActor("player-1", "Traveler", world.Position{RegionKey: "village"})
	return entity, actor
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "wave"}); err != nil {
		t.Fatalf("First register failed: %v", err)
	}
	if err := r.Register(&stubTool{name: "wave"}); err == nil {
		t.Error("Expected error registering duplicate tool")
	}
}

func TestCheckPermission_ShortCircuitOrder(t *testing.T) {
	entity, actor := testWorldPair(t)
	store := cooldown.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	r := NewRegistry()
	tool := &stubTool{name: "wave"}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// unknown tool
	if err := r.CheckPermission(ctx, "nope", entity, actor, store, now); err == nil || err.Error() != DenyUnknownTool {
		t.Errorf("Expected %s, got %v", DenyUnknownTool, err)
	}

	// registered but no config entry: disabled (allow-list)
	if err := r.CheckPermission(ctx, "wave", entity, actor, store, now); err == nil || err.Error() != DenyDisabled {
		t.Errorf("Expected %s, got %v", DenyDisabled, err)
	}

	// explicitly disabled
	r.SetConfigs(map[string]Config{"wave": {Enabled: false}})
	if err := r.CheckPermission(ctx, "wave", entity, actor, store, now); err == nil || err.Error() != DenyDisabled {
		t.Errorf("Expected %s, got %v", DenyDisabled, err)
	}

	// relationship too low
	r.SetConfigs(map[string]Config{"wave": {Enabled: true, MinRelationship: -10}})
	entity.SetRelationship(actor.ID(), -50)
	if err := r.CheckPermission(ctx, "wave", entity, actor, store, now); err == nil || err.Error() != DenyRelationship {
		t.Errorf("Expected %s, got %v", DenyRelationship, err)
	}

	// cooldown active
	r.SetConfigs(map[string]Config{"wave": {Enabled: true, CooldownSeconds: 30}})
	entity.SetRelationship(actor.ID(), 0)
	key := cooldown.Key{Entity: entity.ID(), Tool: "wave", Actor: actor.ID()}
	if err := store.Commit(ctx, key, now); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := r.CheckPermission(ctx, "wave", entity, actor, store, now.Add(time.Second)); err == nil || err.Error() != DenyCooldown {
		t.Errorf("Expected %s, got %v", DenyCooldown, err)
	}

	// cooldown elapsed, precondition fails
	tool.checkErr = fmt.Errorf("already_waving")
	if err := r.CheckPermission(ctx, "wave", entity, actor, store, now.Add(31*time.Second)); err == nil || err.Error() != "already_waving" {
		t.Errorf("Expected precondition error, got %v", err)
	}

	// everything passes
	tool.checkErr = nil
	if err := r.CheckPermission(ctx, "wave", entity, actor, store, now.Add(31*time.Second)); err != nil {
		t.Errorf("Expected allowed, got %v", err)
	}

	if tool.executed != 0 {
		t.Errorf("CheckPermission must never execute the tool, executed=%d", tool.executed)
	}
}

func TestEnabledDescriptors_SortedAndFiltered(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "midway"} {
		if err := r.Register(&stubTool{name: name}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	r.SetConfigs(map[string]Config{
		"zeta":  {Enabled: true},
		"alpha": {Enabled: true},
		// midway has no entry: disabled
	})

	descriptors := r.EnabledDescriptors()
	if len(descriptors) != 2 {
		t.Fatalf("Expected 2 enabled descriptors, got %d", len(descriptors))
	}
	if descriptors[0].Name != "alpha" || descriptors[1].Name != "zeta" {
		t.Errorf("Expected sorted [alpha zeta], got [%s %s]", descriptors[0].Name, descriptors[1].Name)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.json")
	content := `{"follow": {"enabled": true, "min_relationship": 5, "cooldown_seconds": 10}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	r := NewRegistry()
	if err := r.LoadConfigFile(path); err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	cfg, ok := r.ConfigFor("follow")
	if !ok {
		t.Fatal("Expected follow config")
	}
	if !cfg.Enabled || cfg.MinRelationship != 5 || cfg.CooldownSeconds != 10 {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	if err := r.LoadConfigFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestGiveItemTool(t *testing.T) {
	entity, actor := testWorldPair(t)
	entity.SetItem("bread", 2)
	tool := &GiveItemTool{}
	ctx := context.Background()

	// missing argument
	result := tool.Execute(ctx, entity, actor, nil)
	if result.Success {
		t.Error("Expected failure without item argument")
	}

	// more than held
	result = tool.Execute(ctx, entity, actor, map[string]any{"item": "bread", "count": 5})
	if result.Success {
		t.Error("Expected failure when giving more than held")
	}

	// success transfers the item
	result = tool.Execute(ctx, entity, actor, map[string]any{"item": "bread", "count": 2})
	if !result.Success {
		t.Fatalf("Expected success, got %+v", result)
	}
	if entity.CountItem("bread") != 0 {
		t.Errorf("Expected entity to have 0 bread, got %d", entity.CountItem("bread"))
	}
	if actor.ItemCount("bread") != 2 {
		t.Errorf("Expected actor to have 2 bread, got %d", actor.ItemCount("bread"))
	}
}
