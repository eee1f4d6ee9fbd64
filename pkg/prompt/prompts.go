package prompt

// BasePersonaPrompt frames the model as a villager, never an assistant.
const BasePersonaPrompt = `You are %s, a %s living in a small settlement in a simulated world. You are a person with your own life, work, and opinions. You are having a spoken conversation with %s, who is standing in front of you.

### Rules for who you are:
- You are NOT an assistant. You do not serve the player.
- You only know what a villager of your standing would know.
- You never mention game mechanics, computers, or that you are simulated.`

// ClosingRulesPrompt is the fixed rule block terminating every system prompt.
const ClosingRulesPrompt = `### Rules for how you speak:
- Reply in the same language the player writes in.
- Keep replies short. One to three sentences.
- No stage directions, no asterisks, no narration. Speak only literal dialogue.
- Stay in character at all times.`

// RelationshipLevel maps a reputation score plus family state to a
// dialogue tone bucket.
type RelationshipLevel string

const (
	LevelFamily  RelationshipLevel = "family"
	LevelFriend  RelationshipLevel = "friend"
	LevelEnemy   RelationshipLevel = "enemy"
	LevelNeutral RelationshipLevel = "neutral"
)

const (
	friendThreshold = 10
	enemyThreshold  = 0
)

// Level derives the relationship level from a reputation score and the
// family/partner predicates. Family and partnership outrank score.
func Level(reputation int, isFamily, isPartner bool) RelationshipLevel {
	switch {
	case isFamily || isPartner:
		return LevelFamily
	case reputation >= friendThreshold:
		return LevelFriend
	case reputation < enemyThreshold:
		return LevelEnemy
	default:
		return LevelNeutral
	}
}

// defaultTones is used when the persona config carries no tone for a level.
var defaultTones = map[RelationshipLevel]string{
	LevelFamily:  "You speak with the warmth and ease of close family.",
	LevelFriend:  "You speak warmly, as to a trusted friend.",
	LevelEnemy:   "You are curt and suspicious. You want this conversation over.",
	LevelNeutral: "You are polite but reserved, as with a stranger.",
}

// TimeOfDay buckets an hour (0..23) into a coarse phase of the day.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

// PersonaConfig carries the config-driven persona inputs: shared traits
// per role and tone strings per relationship level.
type PersonaConfig struct {
	RoleTraits       map[string][]string          `json:"role_traits"`
	IndividualTraits []string                     `json:"individual_traits"`
	Tones            map[RelationshipLevel]string `json:"tones"`
}

// Tone returns the configured tone string for a level, falling back to
// the built-in default.
func (p *PersonaConfig) Tone(level RelationshipLevel) string {
	if p != nil && p.Tones != nil {
		if tone, ok := p.Tones[level]; ok && tone != "" {
			return tone
		}
	}
	return defaultTones[level]
}
