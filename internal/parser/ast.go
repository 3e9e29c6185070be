package parser

import (
	"strings"
)

// Command is one chat command. Exactly one field is set after a parse.
type Command struct {
	Train    *TrainCmd    `parser:"( @@"`
	Patrol   *PatrolCmd   `parser:"| @@"`
	Scavenge *ScavengeCmd `parser:"| @@"`
	Craft    *CraftCmd    `parser:"| @@"`
	Use      *UseCmd      `parser:"| @@"`
	Defend   *DefendCmd   `parser:"| @@"`
	Hit      *HitCmd      `parser:"| @@"`
	Salute   *SaluteCmd   `parser:"| @@"`
	Honor    *HonorCmd    `parser:"| @@"`
	Stats    *StatsCmd    `parser:"| @@"`
	Recipes  *RecipesCmd  `parser:"| @@"`
	Top      *TopCmd      `parser:"| @@"`
	Events   *EventsCmd   `parser:"| @@"`
	Help     *HelpCmd     `parser:"| @@"`
	Ping     *PingCmd     `parser:"| @@"`
	SetHonor *SetHonorCmd `parser:"| @@"`
	AddHonor *AddHonorCmd `parser:"| @@"`
	SetSkill *SetSkillCmd `parser:"| @@"`
	Force    *ForceCmd    `parser:"| @@"`
	Games    *GamesCmd    `parser:"| @@"`
	Grant    *GrantCmd    `parser:"| @@"`
	Revoke   *RevokeCmd   `parser:"| @@ )"`
}

// Admin reports whether the command needs owner rights.
func (c *Command) Admin() bool {
	return c.SetHonor != nil || c.AddHonor != nil || c.SetSkill != nil ||
		c.Force != nil || c.Games != nil || c.Grant != nil || c.Revoke != nil
}

// TrainCmd raises a skill: train <skill>
type TrainCmd struct {
	Keyword string `parser:"@\"train\""`
	Skill   string `parser:"@Word"`
}

type PatrolCmd struct {
	Keyword string `parser:"@\"patrol\""`
}

type ScavengeCmd struct {
	Keyword string `parser:"@(\"scavenge\"|\"loot\")"`
}

// CraftCmd names a recipe, which may be several words.
type CraftCmd struct {
	Keyword string   `parser:"@\"craft\""`
	Words   []string `parser:"@Word+"`
}

// Item is the recipe name as typed.
func (c *CraftCmd) Item() string { return strings.Join(c.Words, " ") }

type UseCmd struct {
	Keyword string   `parser:"@\"use\""`
	Words   []string `parser:"@Word+"`
}

// Item is the item name as typed.
func (c *UseCmd) Item() string { return strings.Join(c.Words, " ") }

type DefendCmd struct {
	Keyword string `parser:"@\"defend\""`
}

type HitCmd struct {
	Keyword string `parser:"@(\"hit\"|\"strike\")"`
}

// SaluteCmd: salute @someone
type SaluteCmd struct {
	Keyword string `parser:"@\"salute\""`
	Target  string `parser:"@Mention"`
}

// HonorCmd shows the caller's honor, or a mentioned player's.
type HonorCmd struct {
	Keyword string `parser:"@(\"honor\"|\"xp\"|\"rank\")"`
	Target  string `parser:"@Mention?"`
}

type StatsCmd struct {
	Keyword string `parser:"@(\"stats\"|\"profile\")"`
	Target  string `parser:"@Mention?"`
}

type RecipesCmd struct {
	Keyword string `parser:"@\"recipes\""`
}

// TopCmd: top [n]
type TopCmd struct {
	Keyword string `parser:"@(\"top\"|\"leaderboard\")"`
	N       int    `parser:"@Int?"`
}

type EventsCmd struct {
	Keyword string `parser:"@(\"events\"|\"status\")"`
}

type PingCmd struct {
	Keyword string `parser:"@\"ping\""`
}

type HelpCmd struct {
	Keyword string `parser:"@\"help\""`
	Topic   string `parser:"@Word?"`
}

// SetHonorCmd: sethonor @someone <amount>
type SetHonorCmd struct {
	Keyword string `parser:"@(\"sethonor\"|\"setxp\")"`
	Target  string `parser:"@Mention"`
	Amount  int    `parser:"@Int"`
}

// AddHonorCmd: addhonor @someone <delta>
type AddHonorCmd struct {
	Keyword string `parser:"@(\"addhonor\"|\"addxp\")"`
	Target  string `parser:"@Mention"`
	Amount  int    `parser:"@Int"`
}

// SetSkillCmd: setskill @someone <skill> <level>
type SetSkillCmd struct {
	Keyword string `parser:"@\"setskill\""`
	Target  string `parser:"@Mention"`
	Skill   string `parser:"@Word"`
	Level   int    `parser:"@Int"`
}

// ForceCmd: force attack|boss
type ForceCmd struct {
	Keyword string `parser:"@\"force\""`
	Class   string `parser:"@Word"`
}

// GamesCmd: games on|off
type GamesCmd struct {
	Keyword string `parser:"@\"games\""`
	State   string `parser:"@(\"on\"|\"off\")"`
}

// On reports whether the command enables games.
func (c *GamesCmd) On() bool { return strings.EqualFold(c.State, "on") }

// GrantCmd: grant @someone <role words>
type GrantCmd struct {
	Keyword string   `parser:"@\"grant\""`
	Target  string   `parser:"@Mention"`
	Words   []string `parser:"@Word+"`
}

// Role is the role name as typed.
func (c *GrantCmd) Role() string { return strings.Join(c.Words, " ") }

type RevokeCmd struct {
	Keyword string   `parser:"@\"revoke\""`
	Target  string   `parser:"@Mention"`
	Words   []string `parser:"@Word+"`
}

// Role is the role name as typed.
func (c *RevokeCmd) Role() string { return strings.Join(c.Words, " ") }

// Normalize strips a leading slash, a "/cmd@BotName" suffix and surrounding space.
func Normalize(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "/")
	head, rest, _ := strings.Cut(input, " ")
	if name, _, ok := strings.Cut(head, "@"); ok && name != "" {
		head = name
	}
	if rest == "" {
		return head
	}
	return head + " " + strings.TrimSpace(rest)
}
