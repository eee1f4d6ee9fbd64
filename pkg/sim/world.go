// Package sim is a small in-memory simulated world implementing the
// pkg/world interfaces. It stands in for a real engine in tests and in
// the dev console: a handful of named regions, entities with d20-based
// vitals, and actors that can move between regions.
package sim

import (
	"sort"
	"sync"

	"github.com/jwebster45206/npc-engine/pkg/world"
)

// World implements world.Directory, world.RegionResolver,
// world.Context, and world.Notifier.
type World struct {
	mu        sync.RWMutex
	regions   map[string]string // region key -> display name
	entities  map[world.EntityID]*Entity
	actors    map[world.ActorID]*Actor
	lastKnown map[world.EntityID]world.Position
	hour      int
	weather   string

	notifyMu      sync.Mutex
	notifications map[world.ActorID][]string
	onNotify      func(actor world.ActorID, message string)
}

func NewWorld() *World {
	return &World{
		regions:       make(map[string]string),
		entities:      make(map[world.EntityID]*Entity),
		actors:        make(map[world.ActorID]*Actor),
		lastKnown:     make(map[world.EntityID]world.Position),
		hour:          9,
		weather:       "clear",
		notifications: make(map[world.ActorID][]string),
	}
}

// AddRegion registers a region key with a display name.
func (w *World) AddRegion(key, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.regions[key] = name
}

// AddEntity places an entity into the world.
func (w *World) AddEntity(e *Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities[e.ID()] = e
	w.lastKnown[e.ID()] = e.Position()
}

// AddActor places an actor into the world.
func (w *World) AddActor(a *Actor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actors[a.ID()] = a
}

// RemoveEntity unloads an entity, keeping its last known position.
func (w *World) RemoveEntity(id world.EntityID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entities[id]; ok {
		w.lastKnown[id] = e.Position()
		delete(w.entities, id)
	}
}

// SetClock sets the hour of day and weather.
func (w *World) SetClock(hour int, weather string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hour = hour
	w.weather = weather
}

// Directory

func (w *World) Actor(id world.ActorID) (world.Actor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, ok := w.actors[id]
	if !ok {
		return nil, false
	}
	return a, true
}

func (w *World) Entity(id world.EntityID) (world.Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	return e, true
}

// EntityList returns every loaded entity, sorted by ID.
func (w *World) EntityList() []world.Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]world.Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// RegionResolver

func (w *World) RegionOf(id world.EntityID) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	if !ok || !e.Valid() {
		return "", false
	}
	return e.Position().RegionKey, true
}

func (w *World) LastKnownRegion(id world.EntityID) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	pos, ok := w.lastKnown[id]
	if !ok || pos.RegionKey == "" {
		return "", false
	}
	if _, known := w.regions[pos.RegionKey]; !known {
		return "", false
	}
	return pos.RegionKey, true
}

func (w *World) ActorRegion(id world.ActorID) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, ok := w.actors[id]
	if !ok {
		return "", false
	}
	key := a.Position().RegionKey
	if key == "" {
		return "", false
	}
	return key, true
}

// Context

func (w *World) Hour() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.hour
}

func (w *World) Weather() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.weather
}

func (w *World) LocationName(pos world.Position) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if name, ok := w.regions[pos.RegionKey]; ok {
		return name
	}
	return "the wilds"
}

// Notifier

// Notify records the message and forwards it to the OnNotify hook.
func (w *World) Notify(actor world.ActorID, message string) {
	w.notifyMu.Lock()
	w.notifications[actor] = append(w.notifications[actor], message)
	hook := w.onNotify
	w.notifyMu.Unlock()
	if hook != nil {
		hook(actor, message)
	}
}

// OnNotify installs a delivery hook, e.g. the console transcript.
func (w *World) OnNotify(fn func(actor world.ActorID, message string)) {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()
	w.onNotify = fn
}

// Notifications returns all messages delivered to an actor.
func (w *World) Notifications(actor world.ActorID) []string {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()
	out := make([]string, len(w.notifications[actor]))
	copy(out, w.notifications[actor])
	return out
}

var (
	_ world.Directory      = (*World)(nil)
	_ world.RegionResolver = (*World)(nil)
	_ world.Context        = (*World)(nil)
	_ world.Notifier       = (*World)(nil)
)
