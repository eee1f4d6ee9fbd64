// Package session owns conversation lifecycle: one active session per
// actor, a capped history per session, and a watchdog that tears down
// sessions whose actor left, whose entity went invalid, or that went
// stale or out of range.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/npc-engine/internal/loop"
	"github.com/jwebster45206/npc-engine/pkg/chat"
	"github.com/jwebster45206/npc-engine/pkg/prompt"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

// ApologyMessage is the fixed text shown on total failure. The actor
// never sees a raw error payload.
const ApologyMessage = "Sorry... I lost my train of thought. What were you saying?"

// User-facing refusal and teardown messages.
const (
	msgAlreadyTalking = "You are already in a conversation."
	msgNotConfigured  = "Conversations are not available right now."
	msgEntityGone     = "Your conversation partner is gone."
	msgTooFar         = "You are too far away to keep talking."
	msgTimedOut       = "The conversation trails off."
)

// Session binds one actor to one entity for a bounded dialogue.
type Session struct {
	ID           uuid.UUID
	Actor        world.ActorID
	Entity       world.EntityID
	StartedAt    time.Time
	LastActivity time.Time
	History      *chat.History
}

// Settings are the registry tunables.
type Settings struct {
	MaxDistance        float64
	Timeout            time.Duration
	WatchdogInterval   time.Duration
	HistoryMaxPairs    int
	ProviderConfigured bool
}

// Registry is the top-level orchestrator. Session and history maps are
// touched by the watchdog goroutine and by in-flight message handlers;
// message handling is additionally serialized per actor so two turns
// for the same actor never interleave history writes.
type Registry struct {
	mu         sync.Mutex
	sessions   map[world.ActorID]*Session
	actorLocks map[world.ActorID]*sync.Mutex

	loop     *loop.Loop
	dir      world.Directory
	wc       world.Context
	notifier world.Notifier
	persona  *prompt.PersonaConfig
	settings Settings
	logger   *slog.Logger

	watchdogCancel context.CancelFunc
	watchdogDone   chan struct{}
}

func NewRegistry(l *loop.Loop, dir world.Directory, wc world.Context, notifier world.Notifier, persona *prompt.PersonaConfig, settings Settings, logger *slog.Logger) *Registry {
	if settings.WatchdogInterval <= 0 {
		settings.WatchdogInterval = 2 * time.Second
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 120 * time.Second
	}
	if settings.MaxDistance <= 0 {
		settings.MaxDistance = 10
	}
	return &Registry{
		sessions:   make(map[world.ActorID]*Session),
		actorLocks: make(map[world.ActorID]*sync.Mutex),
		loop:       l,
		dir:        dir,
		wc:         wc,
		notifier:   notifier,
		persona:    persona,
		settings:   settings,
		logger:     logger,
	}
}

// Start begins a session. Returns false with a user-facing reason when
// the actor already has a session, the entity is busy, or the provider
// is not configured. An existing session's binding is never changed by
// a refused start.
func (r *Registry) Start(actor world.Actor, entity world.Entity) (bool, string) {
	if !r.settings.ProviderConfigured {
		return false, msgNotConfigured
	}
	if reason, busy := busyReason(entity); busy {
		return false, reason
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[actor.ID()]; exists {
		return false, msgAlreadyTalking
	}

	now := time.Now()
	r.sessions[actor.ID()] = &Session{
		ID:           uuid.New(),
		Actor:        actor.ID(),
		Entity:       entity.ID(),
		StartedAt:    now,
		LastActivity: now,
		History:      chat.NewHistory(r.settings.HistoryMaxPairs),
	}
	r.logger.Info("Session started", "actor", actor.ID(), "entity", entity.ID())
	return true, ""
}

// End removes the actor's session. Returns false if none existed.
func (r *Registry) End(actor world.ActorID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[actor]; !exists {
		return false
	}
	delete(r.sessions, actor)
	r.logger.Info("Session ended", "actor", actor)
	return true
}

// Toggle ends the session if the actor is already talking to this
// entity, otherwise starts one. Returns whether a session is active
// after the call, plus a refusal reason when starting failed.
func (r *Registry) Toggle(actor world.Actor, entity world.Entity) (bool, string) {
	if partner, ok := r.PartnerOf(actor.ID()); ok && partner == entity.ID() {
		r.End(actor.ID())
		return false, ""
	}
	return r.Start(actor, entity)
}

// IsActive reports whether the actor has a session.
func (r *Registry) IsActive(actor world.ActorID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[actor]
	return ok
}

// PartnerOf returns the entity the actor is talking to.
func (r *Registry) PartnerOf(actor world.ActorID) (world.EntityID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[actor]
	if !ok {
		return "", false
	}
	return s.Entity, true
}

// ProcessMessage handles one user turn. Serialized per actor. Returns
// the NPC's reply, or ok=false meaning "no reply this turn"; the
// caller substitutes ApologyMessage for the actor. Never panics and
// never returns a raw error payload.
func (r *Registry) ProcessMessage(ctx context.Context, actorID world.ActorID, message string) (string, bool) {
	if err := chat.ValidateMessage(message); err != nil {
		return "", false
	}

	lock := r.actorLock(actorID)
	lock.Lock()
	defer lock.Unlock()

	sess, actor, entity, ok := r.resolveTurn(actorID)
	if !ok {
		return "", false
	}

	systemPrompt := prompt.BuildSystemPrompt(
		world.SnapshotActor(actor),
		world.SnapshotEntity(entity, actorID, r.wc),
		r.persona,
	)

	// Run the turn against a copy of the history. If the watchdog
	// tears the session down while the request is in flight, the
	// reply is still delivered but the dead session is not mutated
	// or resurrected.
	working := sess.History.Clone()
	sessionID := sess.ID

	text, ok := r.loop.Run(ctx, systemPrompt, working, message, entity, actor)
	if !ok {
		return "", false
	}

	r.mu.Lock()
	if current, exists := r.sessions[actorID]; exists && current.ID == sessionID {
		current.History = working
		current.LastActivity = time.Now()
	}
	r.mu.Unlock()

	return text, true
}

// resolveTurn looks up the session and its live actor and entity.
// A missing entity tears the session down immediately.
func (r *Registry) resolveTurn(actorID world.ActorID) (*Session, world.Actor, world.Entity, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[actorID]
	r.mu.Unlock()
	if !ok {
		return nil, nil, nil, false
	}

	actor, ok := r.dir.Actor(actorID)
	if !ok {
		r.End(actorID)
		return nil, nil, nil, false
	}

	entity, ok := r.dir.Entity(sess.Entity)
	if !ok || !entity.Valid() {
		r.End(actorID)
		r.notifier.Notify(actorID, msgEntityGone)
		return nil, nil, nil, false
	}

	return sess, actor, entity, true
}

// History returns a copy of the actor's session transcript.
func (r *Registry) History(actor world.ActorID) ([]chat.HistoryEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[actor]
	if !ok {
		return nil, false
	}
	return s.History.Entries(), true
}

func (r *Registry) actorLock(actor world.ActorID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.actorLocks[actor]
	if !ok {
		lock = &sync.Mutex{}
		r.actorLocks[actor] = lock
	}
	return lock
}

func busyReason(entity world.Entity) (string, bool) {
	name := entity.Name()
	switch {
	case entity.IsFighting():
		return fmt.Sprintf("%s is fighting!", name), true
	case entity.InHazard():
		return fmt.Sprintf("%s is fleeing danger!", name), true
	case entity.IsProcreating(), entity.InSpecialAction():
		return fmt.Sprintf("%s is busy right now.", name), true
	}
	return "", false
}
