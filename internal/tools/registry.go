// Package tools holds the tool registry, the config-driven permission
// gate, and the builtin in-world tools an NPC can perform.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/jwebster45206/npc-engine/internal/cooldown"
	"github.com/jwebster45206/npc-engine/pkg/chat"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

// Tool categories.
const (
	CategoryMovement  = "movement"
	CategoryCombat    = "combat"
	CategorySocial    = "social"
	CategoryInventory = "inventory"
)

// Machine-consumable denial reasons. These are fed back to the model
// as tool-result context, never shown verbatim to the player.
const (
	DenyUnknownTool  = "unknown_tool"
	DenyDisabled     = "tool_disabled"
	DenyRelationship = "relationship_too_low"
	DenyCooldown     = "cooldown_active"
)

// Tool is one in-world action the model may request.
type Tool interface {
	Descriptor() chat.ToolDescriptor

	// Check is the tool-specific precondition, e.g. "not already
	// performing this action". A non-nil error is the denial reason.
	Check(entity world.Entity, actor world.Actor) error

	// Execute performs the action. Must only be called on the region
	// executor owning the entity.
	Execute(ctx context.Context, entity world.Entity, actor world.Actor, args map[string]any) chat.ToolResult
}

// Config is the per-tool gate loaded from external config. A tool
// without a config entry is disabled (allow-list, not deny-list).
type Config struct {
	Enabled         bool `json:"enabled"`
	MinRelationship int  `json:"min_relationship"`
	CooldownSeconds int  `json:"cooldown_seconds"`
}

// Registry maps tool names to implementations and their configs.
// Registration is static at startup; configs load once. Thread-safe.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	configs map[string]Config
}

func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		configs: make(map[string]Config),
	}
}

// Register adds a tool. Duplicate names are an error.
func (r *Registry) Register(t Tool) error {
	name := t.Descriptor().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// SetConfigs replaces the per-tool config map.
func (r *Registry) SetConfigs(configs map[string]Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = configs
}

// LoadConfigFile reads per-tool configs from a JSON file of the form
// {"follow": {"enabled": true, "min_relationship": 0, "cooldown_seconds": 10}}.
func (r *Registry) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tool config: %w", err)
	}
	var configs map[string]Config
	if err := json.Unmarshal(data, &configs); err != nil {
		return fmt.Errorf("failed to parse tool config: %w", err)
	}
	r.SetConfigs(configs)
	return nil
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// ConfigFor returns the config for a tool name. Absent means disabled.
func (r *Registry) ConfigFor(name string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// EnabledDescriptors returns the descriptors of all enabled tools,
// sorted by name, for the model's tool list.
func (r *Registry) EnabledDescriptors() []chat.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]chat.ToolDescriptor, 0, len(r.tools))
	for name, t := range r.tools {
		if cfg, ok := r.configs[name]; ok && cfg.Enabled {
			out = append(out, t.Descriptor())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CheckPermission evaluates the permission chain for one tool call,
// short-circuiting on the first failure: tool exists, tool enabled,
// relationship at least the configured minimum, cooldown elapsed, then
// the tool's own precondition. A nil return means allowed.
func (r *Registry) CheckPermission(ctx context.Context, name string, entity world.Entity, actor world.Actor, cooldowns cooldown.Store, now time.Time) error {
	tool, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%s", DenyUnknownTool)
	}

	cfg, ok := r.ConfigFor(name)
	if !ok || !cfg.Enabled {
		return fmt.Errorf("%s", DenyDisabled)
	}

	if entity.Relationship(actor.ID()) < cfg.MinRelationship {
		return fmt.Errorf("%s", DenyRelationship)
	}

	key := cooldown.Key{Entity: entity.ID(), Tool: name, Actor: actor.ID()}
	ready, err := cooldown.Ready(ctx, cooldowns, key, time.Duration(cfg.CooldownSeconds)*time.Second, now)
	if err != nil {
		// Fail open on store errors; the denial would be worse than
		// an occasional early repeat.
		return tool.Check(entity, actor)
	}
	if !ready {
		return fmt.Errorf("%s", DenyCooldown)
	}

	return tool.Check(entity, actor)
}
