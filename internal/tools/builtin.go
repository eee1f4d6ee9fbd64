package tools

import (
	"context"
	"fmt"

	"github.com/jwebster45206/npc-engine/pkg/chat"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

// RegisterBuiltins registers the standard in-world tools.
func RegisterBuiltins(r *Registry) error {
	builtins := []Tool{
		&FollowTool{},
		&StopFollowTool{},
		&LookAtTool{},
		&AttackTool{},
		&GiveItemTool{},
	}
	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// FollowTool makes the NPC walk toward the actor.
type FollowTool struct{}

func (t *FollowTool) Descriptor() chat.ToolDescriptor {
	return chat.ToolDescriptor{
		Name:        "follow",
		Description: "Walk toward the player and follow them",
		Category:    CategoryMovement,
	}
}

func (t *FollowTool) Check(entity world.Entity, actor world.Actor) error {
	if entity.Activity() == "following" {
		return fmt.Errorf("already_following")
	}
	return nil
}

func (t *FollowTool) Execute(ctx context.Context, entity world.Entity, actor world.Actor, args map[string]any) chat.ToolResult {
	if err := entity.WalkTo(actor.Position()); err != nil {
		return chat.FailureResult(err.Error())
	}
	return chat.ToolResult{Success: true, Message: "started following"}
}

// StopFollowTool stops any current movement.
type StopFollowTool struct{}

func (t *StopFollowTool) Descriptor() chat.ToolDescriptor {
	return chat.ToolDescriptor{
		Name:        "stop_follow",
		Description: "Stop following the player and stand still",
		Category:    CategoryMovement,
	}
}

func (t *StopFollowTool) Check(entity world.Entity, actor world.Actor) error {
	if entity.Activity() != "following" {
		return fmt.Errorf("not_following")
	}
	return nil
}

func (t *StopFollowTool) Execute(ctx context.Context, entity world.Entity, actor world.Actor, args map[string]any) chat.ToolResult {
	if err := entity.StopMoving(); err != nil {
		return chat.FailureResult(err.Error())
	}
	return chat.ToolResult{Success: true, Message: "stopped"}
}

// LookAtTool turns the NPC to face the actor.
type LookAtTool struct{}

func (t *LookAtTool) Descriptor() chat.ToolDescriptor {
	return chat.ToolDescriptor{
		Name:        "look_at",
		Description: "Turn and look at the player",
		Category:    CategorySocial,
	}
}

func (t *LookAtTool) Check(entity world.Entity, actor world.Actor) error {
	return nil
}

func (t *LookAtTool) Execute(ctx context.Context, entity world.Entity, actor world.Actor, args map[string]any) chat.ToolResult {
	if err := entity.LookAt(actor.ID()); err != nil {
		return chat.FailureResult(err.Error())
	}
	return chat.ToolResult{Success: true, Message: "looking at player"}
}

// AttackTool makes the NPC attack the actor.
type AttackTool struct{}

func (t *AttackTool) Descriptor() chat.ToolDescriptor {
	return chat.ToolDescriptor{
		Name:        "attack",
		Description: "Attack the player",
		Category:    CategoryCombat,
	}
}

func (t *AttackTool) Check(entity world.Entity, actor world.Actor) error {
	if entity.IsFighting() {
		return fmt.Errorf("already_fighting")
	}
	return nil
}

func (t *AttackTool) Execute(ctx context.Context, entity world.Entity, actor world.Actor, args map[string]any) chat.ToolResult {
	if err := entity.Attack(actor.ID()); err != nil {
		return chat.FailureResult(err.Error())
	}
	return chat.ToolResult{Success: true, Message: "attacking"}
}

// GiveItemTool hands an item from the NPC's inventory to the actor.
type GiveItemTool struct{}

func (t *GiveItemTool) Descriptor() chat.ToolDescriptor {
	return chat.ToolDescriptor{
		Name:        "give_item",
		Description: "Give an item from your inventory to the player",
		Category:    CategoryInventory,
		Parameters: map[string]string{
			"item":  "name of the item to give",
			"count": "how many to give, default 1",
		},
	}
}

func (t *GiveItemTool) Check(entity world.Entity, actor world.Actor) error {
	return nil
}

func (t *GiveItemTool) Execute(ctx context.Context, entity world.Entity, actor world.Actor, args map[string]any) chat.ToolResult {
	item, _ := args["item"].(string)
	if item == "" {
		return chat.FailureResult("missing_item_argument")
	}
	count := 1
	if n, ok := args["count"].(int); ok && n > 0 {
		count = n
	}

	if have := entity.CountItem(item); have < count {
		return chat.FailureResult(fmt.Sprintf("only_have_%d", have))
	}
	if !entity.RemoveItem(item, count) {
		return chat.FailureResult("item_not_available")
	}
	actor.GiveItem(item, count)

	return chat.ToolResult{
		Success: true,
		Message: fmt.Sprintf("gave %d %s", count, item),
		Data:    map[string]any{"item": item, "count": count},
	}
}
