package world

// EntitySnapshot is an immutable copy of the entity and world state a
// prompt is built from. Capturing a snapshot keeps prompt assembly a
// pure function of its inputs.
type EntitySnapshot struct {
	ID          string
	Name        string
	Role        string
	Activity    string
	Fighting    bool
	PartnerName string
	ChildCount  int
	LifeEvents  []string
	Location    string
	Hour        int
	Weather     string
	Reputation  int
	IsFamily    bool
	IsPartner   bool
}

// ActorSnapshot is the actor-side counterpart.
type ActorSnapshot struct {
	ID   string
	Name string
}

// SnapshotEntity captures the prompt-relevant state of an entity as
// seen by one actor. Reads only; safe from any goroutine for
// implementations with internally synchronized getters.
func SnapshotEntity(e Entity, actor ActorID, wc Context) EntitySnapshot {
	pos := e.Position()
	return EntitySnapshot{
		ID:          string(e.ID()),
		Name:        e.Name(),
		Role:        e.Role(),
		Activity:    e.Activity(),
		Fighting:    e.IsFighting(),
		PartnerName: e.PartnerName(),
		ChildCount:  e.ChildCount(),
		LifeEvents:  e.LifeEventFlags(),
		Location:    wc.LocationName(pos),
		Hour:        wc.Hour(),
		Weather:     wc.Weather(),
		Reputation:  e.Relationship(actor),
		IsFamily:    e.IsFamily(actor),
		IsPartner:   e.IsPartner(actor),
	}
}

// SnapshotActor captures the prompt-relevant state of an actor.
func SnapshotActor(a Actor) ActorSnapshot {
	return ActorSnapshot{ID: string(a.ID()), Name: a.Name()}
}
