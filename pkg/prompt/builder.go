package prompt

import (
	"fmt"
	"hash/fnv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/npc-engine/pkg/world"
)

// Builder constructs the system prompt from immutable snapshots using a
// fluent interface. The build is deterministic: identical snapshots and
// persona config always produce the same prompt.
type Builder struct {
	entity  world.EntitySnapshot
	actor   world.ActorSnapshot
	persona *PersonaConfig
}

var titleCaser = cases.Title(language.English)

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithEntity sets the entity snapshot.
func (b *Builder) WithEntity(e world.EntitySnapshot) *Builder {
	b.entity = e
	return b
}

// WithActor sets the actor snapshot.
func (b *Builder) WithActor(a world.ActorSnapshot) *Builder {
	b.actor = a
	return b
}

// WithPersona sets the config-driven persona inputs.
func (b *Builder) WithPersona(p *PersonaConfig) *Builder {
	b.persona = p
	return b
}

// Build assembles the final system prompt. Sections in order: role
// preamble, persona block, current-state facts, personal-life facts,
// relationship tone, closing rules.
func (b *Builder) Build() string {
	var sb strings.Builder

	role := b.entity.Role
	if role == "" {
		role = "villager"
	}
	sb.WriteString(fmt.Sprintf(BasePersonaPrompt, b.entity.Name, role, b.actor.Name))

	b.addPersona(&sb, role)
	b.addCurrentState(&sb)
	b.addPersonalLife(&sb)
	b.addRelationship(&sb)

	sb.WriteString("\n\n" + ClosingRulesPrompt)
	return sb.String()
}

func (b *Builder) addPersona(sb *strings.Builder, role string) {
	var traits []string
	if b.persona != nil {
		traits = append(traits, b.persona.RoleTraits[role]...)
		if t, ok := StableTrait(b.entity.ID, b.persona.IndividualTraits); ok {
			traits = append(traits, t)
		}
	}
	if len(traits) == 0 {
		return
	}
	sb.WriteString("\n\n### Your personality:\n")
	for _, t := range traits {
		sb.WriteString("- " + t + "\n")
	}
}

func (b *Builder) addCurrentState(sb *strings.Builder) {
	sb.WriteString("\n### Your current situation:\n")
	sb.WriteString(fmt.Sprintf("- It is %s and the weather is %s.\n", TimeOfDay(b.entity.Hour), b.entity.Weather))
	if b.entity.Location != "" {
		sb.WriteString(fmt.Sprintf("- You are at %s.\n", b.entity.Location))
	}
	if b.entity.Activity != "" {
		sb.WriteString(fmt.Sprintf("- You are currently %s.\n", b.entity.Activity))
	}
	if b.entity.Fighting {
		sb.WriteString("- You are in the middle of a fight and on edge.\n")
	}
}

func (b *Builder) addPersonalLife(sb *strings.Builder) {
	sb.WriteString("\n### Your personal life:\n")
	if b.entity.PartnerName != "" {
		sb.WriteString(fmt.Sprintf("- Your partner is %s.\n", b.entity.PartnerName))
	} else {
		sb.WriteString("- You are unmarried.\n")
	}
	if b.entity.ChildCount > 0 {
		sb.WriteString(fmt.Sprintf("- You have %d children.\n", b.entity.ChildCount))
	}
	for _, ev := range b.entity.LifeEvents {
		sb.WriteString(fmt.Sprintf("- %s\n", titleCaser.String(ev)))
	}
}

func (b *Builder) addRelationship(sb *strings.Builder) {
	level := Level(b.entity.Reputation, b.entity.IsFamily, b.entity.IsPartner)
	sb.WriteString(fmt.Sprintf("\n### How you feel about %s:\n", b.actor.Name))
	sb.WriteString("- " + b.persona.Tone(level) + "\n")
}

// StableTrait picks one individual trait deterministically from the
// entity id using FNV-1a, so the same entity always gets the same
// trait across runs and platforms. Never randomized.
func StableTrait(entityID string, traits []string) (string, bool) {
	if len(traits) == 0 {
		return "", false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	return traits[int(h.Sum32())%len(traits)], true
}

// BuildSystemPrompt is a convenience function for the common case.
func BuildSystemPrompt(actor world.ActorSnapshot, entity world.EntitySnapshot, persona *PersonaConfig) string {
	return New().
		WithActor(actor).
		WithEntity(entity).
		WithPersona(persona).
		Build()
}
