package rules

import "strings"

// Skill names one of the four trainable attributes.
type Skill string

const (
	Strength     Skill = "strength"
	Agility      Skill = "agility"
	Intelligence Skill = "intelligence"
	Endurance    Skill = "endurance"
)

// Skill bounds, inclusive.
const (
	MinSkill = 1
	MaxSkill = 100
)

// Skills lists every skill in display order.
var Skills = []Skill{Strength, Agility, Intelligence, Endurance}

// ParseSkill resolves a user supplied skill name.
func ParseSkill(s string) (Skill, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sk := range Skills {
		if string(sk) == s {
			return sk, true
		}
	}
	return "", false
}

// Recipe categories.
const (
	CategoryWeapon     = "weapon"
	CategoryConsumable = "consumable"
)

// Tier is the index of a rank in the ordered rank table. Tier 0 is the base tier.
type Tier int

// Rank is one tier of the rank ladder.
type Rank struct {
	Name           string `yaml:"name" json:"name" jsonschema:"required"`
	Role           string `yaml:"role" json:"role,omitempty"` // external role name; defaults to Name
	HonorThreshold int    `yaml:"honor_threshold" json:"honor_threshold" jsonschema:"minimum=0"`
	PowerWeight    int    `yaml:"power_weight" json:"power_weight" jsonschema:"required,minimum=1"`
	BaseHealth     int    `yaml:"base_health" json:"base_health" jsonschema:"minimum=1"`
	Pinned         bool   `yaml:"pinned" json:"pinned"` // only granted by the role authority, never by honor
}

// Range is an inclusive integer interval.
type Range struct {
	Min int `yaml:"min" json:"min" jsonschema:"minimum=0"`
	Max int `yaml:"max" json:"max" jsonschema:"minimum=0"`
}

// Material is a scavengeable crafting input.
type Material struct {
	Name   string `yaml:"name" json:"name" jsonschema:"required"`
	Rarity string `yaml:"rarity" json:"rarity" jsonschema:"required"`
}

// SkillRequirement gates a recipe behind a minimum skill level.
type SkillRequirement struct {
	Skill Skill `yaml:"skill" json:"skill" jsonschema:"required,enum=strength,enum=agility,enum=intelligence,enum=endurance"`
	Level int   `yaml:"level" json:"level" jsonschema:"required,minimum=1,maximum=100"`
}

// UseEffect is what consuming a crafted item does. Honor is a CEL formula.
type UseEffect struct {
	Honor         string `yaml:"honor" json:"honor,omitempty"`
	ResetCooldown string `yaml:"reset_cooldown" json:"reset_cooldown,omitempty"`
}

// Recipe turns materials into one crafted item.
type Recipe struct {
	Name             string            `yaml:"name" json:"name" jsonschema:"required"`
	Category         string            `yaml:"category" json:"category" jsonschema:"required,enum=weapon,enum=consumable"`
	Materials        map[string]int    `yaml:"materials" json:"materials" jsonschema:"required"`
	CombatBonus      int               `yaml:"combat_bonus" json:"combat_bonus,omitempty" jsonschema:"minimum=0"`
	SkillRequirement *SkillRequirement `yaml:"skill_requirement" json:"skill_requirement,omitempty"`
	Use              *UseEffect        `yaml:"use" json:"use,omitempty"`
}

// Cooldowns configures per-action cooldown durations in seconds.
type Cooldowns struct {
	MinimumSeconds           int            `yaml:"minimum_seconds" json:"minimum_seconds" jsonschema:"minimum=1"`
	EnduranceSecondsPerPoint int            `yaml:"endurance_seconds_per_point" json:"endurance_seconds_per_point" jsonschema:"minimum=0"`
	Actions                  map[string]int `yaml:"actions" json:"actions" jsonschema:"required"`
}

// PatrolRules tunes the patrol command.
type PatrolRules struct {
	EncounterChance float64 `yaml:"encounter_chance" json:"encounter_chance" jsonschema:"minimum=0,maximum=1"`
	UneventfulHonor Range   `yaml:"uneventful_honor" json:"uneventful_honor"`
	VictoryHonor    Range   `yaml:"victory_honor" json:"victory_honor"`
}

// SaluteRules tunes the salute command.
type SaluteRules struct {
	Honor Range `yaml:"honor" json:"honor"`
}

// EventRules tunes one contested event class.
type EventRules struct {
	WindowSeconds   int     `yaml:"window_seconds" json:"window_seconds" jsonschema:"minimum=1"`
	ChancePerMinute float64 `yaml:"chance_per_minute" json:"chance_per_minute" jsonschema:"minimum=0,maximum=1"`
	Reward          Range   `yaml:"reward" json:"reward"`
	Capacity        int     `yaml:"capacity" json:"capacity,omitempty" jsonschema:"minimum=0"`
	FlatBase        int     `yaml:"flat_base" json:"flat_base,omitempty" jsonschema:"minimum=0"`
}

// EventTable holds the two contested event classes.
type EventTable struct {
	Attack    EventRules `yaml:"attack" json:"attack"`
	WorldBoss EventRules `yaml:"world_boss" json:"world_boss"`
}

// ScavengeRules tunes how many draws a scavenge makes.
type ScavengeRules struct {
	BaseDraws           int `yaml:"base_draws" json:"base_draws" jsonschema:"minimum=1"`
	IntelligencePerDraw int `yaml:"intelligence_per_draw" json:"intelligence_per_draw" jsonschema:"minimum=1"`
}

// Rules is the full load-time rule set. Build it with Parse or Load so the
// lookup indexes are populated.
type Rules struct {
	Ranks         []Rank         `yaml:"ranks" json:"ranks" jsonschema:"required,minItems=1"`
	Materials     []Material     `yaml:"materials" json:"materials" jsonschema:"required"`
	RarityWeights map[string]int `yaml:"rarity_weights" json:"rarity_weights" jsonschema:"required"`
	Recipes       []Recipe       `yaml:"recipes" json:"recipes"`
	Cooldowns     Cooldowns      `yaml:"cooldowns" json:"cooldowns"`
	Patrol        PatrolRules    `yaml:"patrol" json:"patrol"`
	Salute        SaluteRules    `yaml:"salute" json:"salute"`
	Events        EventTable     `yaml:"events" json:"events"`
	Scavenge      ScavengeRules  `yaml:"scavenge" json:"scavenge"`

	recipeIdx map[string]int
	roleIdx   map[string]Tier
}

func (r *Rules) index() {
	r.recipeIdx = make(map[string]int, len(r.Recipes))
	for i, rc := range r.Recipes {
		r.recipeIdx[strings.ToLower(rc.Name)] = i
	}
	r.roleIdx = make(map[string]Tier, len(r.Ranks))
	for i := range r.Ranks {
		if r.Ranks[i].Role == "" {
			r.Ranks[i].Role = r.Ranks[i].Name
		}
		r.roleIdx[r.Ranks[i].Role] = Tier(i)
	}
}

// Recipe looks a recipe up by name, ignoring case.
func (r *Rules) Recipe(name string) (Recipe, bool) {
	i, ok := r.recipeIdx[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Recipe{}, false
	}
	return r.Recipes[i], true
}

// Rank returns the tier's definition.
func (r *Rules) Rank(t Tier) Rank {
	return r.Ranks[t]
}

// TierOfRole maps an external role name back to its tier.
func (r *Rules) TierOfRole(role string) (Tier, bool) {
	t, ok := r.roleIdx[role]
	return t, ok
}

// HighestTier returns the highest tier among the given roles. Roles that are
// not ranks are ignored; the answer does not depend on role order.
func (r *Rules) HighestTier(roles []string) (Tier, bool) {
	best, found := Tier(0), false
	for _, role := range roles {
		t, ok := r.roleIdx[role]
		if !ok {
			continue
		}
		if !found || t > best {
			best, found = t, true
		}
	}
	return best, found
}

// AcquirableTierFor returns the highest acquirable tier unlocked by honor.
func (r *Rules) AcquirableTierFor(honor int) (Tier, bool) {
	best, found := Tier(0), false
	for i, rk := range r.Ranks {
		if rk.Pinned {
			break
		}
		if rk.HonorThreshold <= honor {
			best, found = Tier(i), true
		}
	}
	return best, found
}

// AcquirableRoles returns the role names of every acquirable tier.
func (r *Rules) AcquirableRoles() []string {
	var out []string
	for _, rk := range r.Ranks {
		if !rk.Pinned {
			out = append(out, rk.Role)
		}
	}
	return out
}

// PinnedRoles returns the role names of every pinned tier.
func (r *Rules) PinnedRoles() []string {
	var out []string
	for _, rk := range r.Ranks {
		if rk.Pinned {
			out = append(out, rk.Role)
		}
	}
	return out
}

// CooldownSeconds returns the base cooldown of an action, 0 if it has none.
func (r *Rules) CooldownSeconds(action string) int {
	return r.Cooldowns.Actions[action]
}

// MaterialNames returns material names in table order.
func (r *Rules) MaterialNames() []string {
	out := make([]string, len(r.Materials))
	for i, m := range r.Materials {
		out[i] = m.Name
	}
	return out
}
