package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// SkillSet holds the four skill levels of a player.
type SkillSet struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Intelligence int `json:"intelligence"`
	Endurance    int `json:"endurance"`
}

// DefaultSkills is the skill set of a player never seen before.
func DefaultSkills() SkillSet {
	return SkillSet{rules.MinSkill, rules.MinSkill, rules.MinSkill, rules.MinSkill}
}

// Level returns the level of one skill.
func (s SkillSet) Level(sk rules.Skill) int {
	switch sk {
	case rules.Strength:
		return s.Strength
	case rules.Agility:
		return s.Agility
	case rules.Intelligence:
		return s.Intelligence
	case rules.Endurance:
		return s.Endurance
	}
	return 0
}

// With returns a copy with one skill set to level.
func (s SkillSet) With(sk rules.Skill, level int) SkillSet {
	switch sk {
	case rules.Strength:
		s.Strength = level
	case rules.Agility:
		s.Agility = level
	case rules.Intelligence:
		s.Intelligence = level
	case rules.Endurance:
		s.Endurance = level
	}
	return s
}

// Map exposes the skills keyed by name, e.g. for formula evaluation.
func (s SkillSet) Map() map[rules.Skill]int {
	out := make(map[rules.Skill]int, len(rules.Skills))
	for _, sk := range rules.Skills {
		out[sk] = s.Level(sk)
	}
	return out
}

// Stats are the patrol counters.
type Stats struct {
	PatrolWins int `json:"patrol_wins"`
	KillStreak int `json:"kill_streak"`
}

// Inventory holds raw materials and crafted items by name.
type Inventory struct {
	Materials    map[string]int `json:"materials"`
	CraftedItems map[string]int `json:"crafted_items"`
}

func (inv Inventory) clone() Inventory {
	out := Inventory{
		Materials:    make(map[string]int, len(inv.Materials)),
		CraftedItems: make(map[string]int, len(inv.CraftedItems)),
	}
	for k, v := range inv.Materials {
		out.Materials[k] = v
	}
	for k, v := range inv.CraftedItems {
		out.CraftedItems[k] = v
	}
	return out
}

// skillsRecord is the persisted shape of the skills table.
type skillsRecord struct {
	Skills SkillSet `json:"skills"`
	Stats  Stats    `json:"stats"`
}

// Record is a read-only view of everything the ledger knows about a player.
type Record struct {
	Player    string
	Honor     int
	Skills    SkillSet
	Stats     Stats
	Inventory Inventory
}

// Standing is one leaderboard line.
type Standing struct {
	Player string
	Honor  int
}

// AtCapError is returned when training a skill that is already maxed.
type AtCapError struct {
	Skill rules.Skill
}

func (e *AtCapError) Error() string {
	return fmt.Sprintf("%s is already maxed at %d", e.Skill, rules.MaxSkill)
}
func (e *AtCapError) Kind() fault.Kind { return fault.StateConflict }

// InsufficientMaterialsError lists how many more of each material were needed.
type InsufficientMaterialsError struct {
	Shortfall map[string]int
}

func (e *InsufficientMaterialsError) Error() string {
	names := make([]string, 0, len(e.Shortfall))
	for name := range e.Shortfall {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%d more %s", e.Shortfall[name], name)
	}
	return "insufficient materials: need " + strings.Join(parts, ", ")
}
func (e *InsufficientMaterialsError) Kind() fault.Kind { return fault.Resource }

// InsufficientItemError is returned when consuming more crafted items than owned.
type InsufficientItemError struct {
	Item string
	Have int
	Want int
}

func (e *InsufficientItemError) Error() string {
	return fmt.Sprintf("you have %d %s, need %d", e.Have, e.Item, e.Want)
}
func (e *InsufficientItemError) Kind() fault.Kind { return fault.Resource }
