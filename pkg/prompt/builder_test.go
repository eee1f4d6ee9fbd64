package prompt

import (
	"strings"
	"testing"

	"github.com/jwebster45206/npc-engine/pkg/world"
)

func testSnapshots() (world.ActorSnapshot, world.EntitySnapshot) {
	actor := world.ActorSnapshot{ID: "player-1", Name: "Traveler"}
	entity := world.EntitySnapshot{
		ID:          "npc-mara",
		Name:        "Mara",
		Role:        "farmer",
		Activity:    "tending the field",
		PartnerName: "Tomas",
		ChildCount:  2,
		Location:    "the village square",
		Hour:        9,
		Weather:     "clear",
		Reputation:  15,
	}
	return actor, entity
}

func testPersona() *PersonaConfig {
	return &PersonaConfig{
		RoleTraits: map[string][]string{
			"farmer": {"You care deeply about your crops."},
		},
		IndividualTraits: []string{"trait A", "trait B", "trait C"},
	}
}

func TestBuildSystemPrompt_Deterministic(t *testing.T) {
	actor, entity := testSnapshots()
	persona := testPersona()

	first := BuildSystemPrompt(actor, entity, persona)
	second := BuildSystemPrompt(actor, entity, persona)

	if first != second {
		t.Error("Expected identical prompts for identical inputs")
	}
}

func TestBuildSystemPrompt_Sections(t *testing.T) {
	actor, entity := testSnapshots()
	prompt := BuildSystemPrompt(actor, entity, testPersona())

	for _, want := range []string{
		"You are Mara, a farmer",
		"You care deeply about your crops.",
		"It is morning and the weather is clear.",
		"You are at the village square.",
		"You are currently tending the field.",
		"Your partner is Tomas.",
		"You have 2 children.",
		"How you feel about Traveler",
		"trusted friend",
		"Speak only literal dialogue.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestStableTrait_DeterministicAcrossRuns(t *testing.T) {
	traits := []string{"a", "b", "c", "d", "e"}

	first, ok := StableTrait("npc-mara", traits)
	if !ok {
		t.Fatal("Expected a trait")
	}
	for i := 0; i < 100; i++ {
		got, _ := StableTrait("npc-mara", traits)
		if got != first {
			t.Fatalf("Trait selection not stable: %q vs %q", got, first)
		}
	}

	if _, ok := StableTrait("anything", nil); ok {
		t.Error("Expected no trait for empty list")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name       string
		reputation int
		isFamily   bool
		isPartner  bool
		want       RelationshipLevel
	}{
		{"family outranks score", -50, true, false, LevelFamily},
		{"partner outranks score", -50, false, true, LevelFamily},
		{"friend at threshold", 10, false, false, LevelFriend},
		{"neutral below threshold", 9, false, false, LevelNeutral},
		{"neutral at zero", 0, false, false, LevelNeutral},
		{"enemy below zero", -1, false, false, LevelEnemy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Level(tt.reputation, tt.isFamily, tt.isPartner); got != tt.want {
				t.Errorf("Level(%d, %v, %v) = %v, want %v",
					tt.reputation, tt.isFamily, tt.isPartner, got, tt.want)
			}
		})
	}
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{5, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{16, "afternoon"},
		{17, "evening"},
		{20, "evening"},
		{21, "night"},
		{2, "night"},
	}
	for _, tt := range tests {
		if got := TimeOfDay(tt.hour); got != tt.want {
			t.Errorf("TimeOfDay(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}
