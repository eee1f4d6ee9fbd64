package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/jwebster45206/npc-engine/internal/cooldown"
	"github.com/jwebster45206/npc-engine/internal/tools"
	"github.com/jwebster45206/npc-engine/pkg/chat"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

// Uniform batch failure reasons.
const (
	ReasonEntityUnavailable = "entity_unavailable"
	ReasonTimeout           = "execution_timed_out"
	ReasonInternalError     = "internal_error"
)

// DefaultTimeout bounds how long a caller waits for a region unit.
const DefaultTimeout = 5 * time.Second

// Dispatcher executes tool batches on the region goroutine owning the
// target entity. Callable from any goroutine; returns synchronously
// with a bounded wait.
type Dispatcher struct {
	exec      *Executor
	regions   world.RegionResolver
	registry  *tools.Registry
	cooldowns cooldown.Store
	timeout   time.Duration
	logger    *slog.Logger
}

func NewDispatcher(exec *Executor, regions world.RegionResolver, registry *tools.Registry, cooldowns cooldown.Store, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		exec:      exec,
		regions:   regions,
		registry:  registry,
		cooldowns: cooldowns,
		timeout:   timeout,
		logger:    logger,
	}
}

// ExecuteBatch runs every call in the batch strictly in arrival order
// on the one goroutine owning the resolved region, so side effects are
// sequentially consistent and two batches for the same entity never
// interleave. Each call passes the permission gate first; a successful
// call commits its cooldown inside the same region unit, before the
// batch returns. On timeout or an unresolvable region the whole batch
// fails with a uniform result per call. Never panics to the caller.
func (d *Dispatcher) ExecuteBatch(ctx context.Context, calls []chat.ToolCall, entity world.Entity, actor world.Actor) []chat.ToolResult {
	if len(calls) == 0 {
		return nil
	}

	key, ok := d.resolveRegion(entity, actor)
	if !ok {
		d.logger.Warn("No region resolved for tool batch",
			"entity", entity.ID(), "actor", actor.ID())
		return uniformFailure(len(calls), ReasonEntityUnavailable)
	}

	results := make([]chat.ToolResult, len(calls))
	unit := func() {
		for i := range calls {
			results[i] = d.executeOne(ctx, calls[i], entity, actor)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.exec.SubmitWait(waitCtx, key, unit); err != nil {
		d.logger.Warn("Tool batch did not complete in time",
			"entity", entity.ID(), "region", key, "error", err)
		// The unit may still be running and writing into its own
		// results slice; return a fresh uniform slice instead.
		return uniformFailure(len(calls), ReasonTimeout)
	}

	return results
}

// executeOne runs gate + execution + cooldown commit for one call.
// Runs on the region goroutine. Converts panics to failure results so
// nothing propagates into the caller's async continuation.
func (d *Dispatcher) executeOne(ctx context.Context, call chat.ToolCall, entity world.Entity, actor world.Actor) (result chat.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Tool execution panicked",
				"tool", call.Name, "entity", entity.ID(), "panic", r)
			result = chat.FailureResult(ReasonInternalError)
		}
	}()

	// Fallback regions may be running this unit for an entity that
	// went invalid in the meantime; never execute with stale state.
	if !entity.Valid() {
		return chat.FailureResult(ReasonEntityUnavailable)
	}

	now := time.Now()
	if err := d.registry.CheckPermission(ctx, call.Name, entity, actor, d.cooldowns, now); err != nil {
		return chat.FailureResult(err.Error())
	}

	tool, _ := d.registry.Get(call.Name)
	result = tool.Execute(ctx, entity, actor, call.Arguments)

	if result.Success {
		key := cooldown.Key{Entity: entity.ID(), Tool: call.Name, Actor: actor.ID()}
		if err := d.cooldowns.Commit(ctx, key, now); err != nil {
			d.logger.Error("Failed to commit cooldown",
				"tool", call.Name, "entity", entity.ID(), "error", err)
		}
	}
	return result
}

// resolveRegion finds the executor key for the batch: the region
// owning the entity, else the region of its last known location, else
// the region owning the requesting actor.
func (d *Dispatcher) resolveRegion(entity world.Entity, actor world.Actor) (string, bool) {
	if key, ok := d.regions.RegionOf(entity.ID()); ok {
		return key, true
	}
	if key, ok := d.regions.LastKnownRegion(entity.ID()); ok {
		return key, true
	}
	if key, ok := d.regions.ActorRegion(actor.ID()); ok {
		return key, true
	}
	return "", false
}

func uniformFailure(n int, reason string) []chat.ToolResult {
	results := make([]chat.ToolResult, n)
	for i := range results {
		results[i] = chat.FailureResult(reason)
	}
	return results
}
