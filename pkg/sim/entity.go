package sim

import (
	"fmt"
	"sync"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/npc-engine/pkg/world"
)

// Entity is a simulated villager. All state is behind one mutex so
// reads are safe from any goroutine; the dispatcher still serializes
// mutations per region.
type Entity struct {
	mu sync.RWMutex

	id       world.EntityID
	name     string
	role     string
	valid    bool
	pos      world.Position
	activity string

	fighting    bool
	procreating bool
	inHazard    bool
	special     bool

	relationships map[world.ActorID]int
	family        map[world.ActorID]bool
	partners      map[world.ActorID]bool
	partnerName   string
	childCount    int
	lifeEvents    []string

	items  map[string]int
	vitals *d20.Actor
}

// NewEntity creates a live entity with default vitals.
func NewEntity(id world.EntityID, name, role string, pos world.Position) (*Entity, error) {
	vitals, err := d20.NewActor(string(id)).
		WithHP(20).
		WithAC(10).
		WithAttributes(map[string]int{"strength": 10, "charisma": 10}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build entity vitals: %w", err)
	}
	return &Entity{
		id:            id,
		name:          name,
		role:          role,
		valid:         true,
		pos:           pos,
		relationships: make(map[world.ActorID]int),
		family:        make(map[world.ActorID]bool),
		partners:      make(map[world.ActorID]bool),
		items:         make(map[string]int),
		vitals:        vitals,
	}, nil
}

func (e *Entity) ID() world.EntityID { return e.id }

func (e *Entity) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

func (e *Entity) Role() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.role
}

func (e *Entity) Valid() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.valid && e.vitals.HP() > 0
}

func (e *Entity) Position() world.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos
}

func (e *Entity) Relationship(actor world.ActorID) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.relationships[actor]
}

func (e *Entity) IsFamily(actor world.ActorID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.family[actor]
}

func (e *Entity) IsPartner(actor world.ActorID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.partners[actor]
}

func (e *Entity) IsFighting() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fighting
}

func (e *Entity) IsProcreating() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.procreating
}

func (e *Entity) InHazard() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inHazard
}

func (e *Entity) InSpecialAction() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.special
}

func (e *Entity) Activity() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activity
}

func (e *Entity) PartnerName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.partnerName
}

func (e *Entity) ChildCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.childCount
}

func (e *Entity) LifeEventFlags() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.lifeEvents...)
}

func (e *Entity) Attack(target world.ActorID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.valid {
		return fmt.Errorf("entity is gone")
	}
	e.fighting = true
	e.activity = "fighting"
	return nil
}

func (e *Entity) LookAt(target world.ActorID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.valid {
		return fmt.Errorf("entity is gone")
	}
	return nil
}

func (e *Entity) WalkTo(pos world.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.valid {
		return fmt.Errorf("entity is gone")
	}
	e.activity = "following"
	return nil
}

func (e *Entity) StopMoving() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activity = ""
	return nil
}

func (e *Entity) CountItem(item string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.items[item]
}

func (e *Entity) RemoveItem(item string, count int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.items[item] < count {
		return false
	}
	e.items[item] -= count
	return true
}

// Mutators for tests and the console harness.

func (e *Entity) SetRelationship(actor world.ActorID, score int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.relationships[actor] = score
}

func (e *Entity) SetFamily(actor world.ActorID, isFamily bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.family[actor] = isFamily
}

func (e *Entity) SetPartner(actor world.ActorID, isPartner bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.partners[actor] = isPartner
}

func (e *Entity) SetBusy(fighting, procreating, inHazard, special bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fighting = fighting
	e.procreating = procreating
	e.inHazard = inHazard
	e.special = special
}

func (e *Entity) SetActivity(activity string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activity = activity
}

func (e *Entity) SetPersonalLife(partnerName string, children int, lifeEvents []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.partnerName = partnerName
	e.childCount = children
	e.lifeEvents = append([]string(nil), lifeEvents...)
}

func (e *Entity) SetPosition(pos world.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos = pos
}

func (e *Entity) SetItem(item string, count int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items[item] = count
}

// Invalidate marks the entity dead/unresolvable.
func (e *Entity) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.valid = false
}

// HP exposes the entity's current hit points.
func (e *Entity) HP() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vitals.HP()
}

var _ world.Entity = (*Entity)(nil)

// Actor is a simulated player.
type Actor struct {
	mu sync.RWMutex

	id     world.ActorID
	name   string
	online bool
	pos    world.Position
	items  map[string]int
}

func NewActor(id world.ActorID, name string, pos world.Position) *Actor {
	return &Actor{
		id:     id,
		name:   name,
		online: true,
		pos:    pos,
		items:  make(map[string]int),
	}
}

func (a *Actor) ID() world.ActorID { return a.id }

func (a *Actor) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

func (a *Actor) Online() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.online
}

func (a *Actor) Position() world.Position {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pos
}

func (a *Actor) GiveItem(item string, count int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[item] += count
}

func (a *Actor) ItemCount(item string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.items[item]
}

func (a *Actor) SetOnline(online bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.online = online
}

func (a *Actor) SetPosition(pos world.Position) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pos = pos
}

var _ world.Actor = (*Actor)(nil)
