// Package world defines the interfaces a host simulation implements to
// let NPCs hold conversations. The engine itself never imports a
// specific simulation; everything it needs from entities, actors, and
// the world is expressed here.
package world

import "math"

type EntityID string
type ActorID string

// Position is a point in the simulated world. RegionKey names the
// independently-threaded partition that owns this location.
type Position struct {
	X, Y, Z   float64
	RegionKey string
}

// Distance returns the euclidean distance between two positions.
func Distance(a, b Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Entity is a simulated character an actor can talk to. Mutating
// methods (Attack, LookAt, WalkTo, inventory changes) must only be
// called from the region executor that owns the entity; the dispatcher
// guarantees this for tool execution.
type Entity interface {
	ID() EntityID
	Name() string
	Role() string // occupation / config category, e.g. "farmer"
	Valid() bool  // alive and resolvable
	Position() Position

	// Relationship and family state toward one actor.
	Relationship(actor ActorID) int
	IsFamily(actor ActorID) bool
	IsPartner(actor ActorID) bool

	// Busy-state predicates. A busy entity refuses new sessions.
	IsFighting() bool
	IsProcreating() bool
	InHazard() bool
	InSpecialAction() bool

	Activity() string
	PartnerName() string
	ChildCount() int
	LifeEventFlags() []string

	// In-world actions available to tools.
	Attack(target ActorID) error
	LookAt(target ActorID) error
	WalkTo(pos Position) error
	StopMoving() error
	CountItem(item string) int
	RemoveItem(item string, count int) bool
}

// Actor is the human participant of a conversation.
type Actor interface {
	ID() ActorID
	Name() string
	Online() bool
	Position() Position
	GiveItem(item string, count int)
}

// Directory resolves live actor and entity references by id.
type Directory interface {
	Actor(id ActorID) (Actor, bool)
	Entity(id EntityID) (Entity, bool)
}

// RegionResolver maps entities and actors to the region key owning
// them. Used by the dispatcher to pick the executor a tool batch runs
// on, with fallbacks when the entity itself is unloaded.
type RegionResolver interface {
	RegionOf(id EntityID) (string, bool)
	LastKnownRegion(id EntityID) (string, bool)
	ActorRegion(id ActorID) (string, bool)
}

// Context exposes coarse world state for prompt assembly.
type Context interface {
	Hour() int // 0..23
	Weather() string
	LocationName(pos Position) string
}

// Notifier delivers user-facing text to an actor. Implemented by the
// host's chat/messaging layer.
type Notifier interface {
	Notify(actor ActorID, message string)
}
