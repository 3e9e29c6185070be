package game

import (
	"time"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ledger"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// Results of the player commands. Promotion is the new rank role when the
// command changed the player's rank, empty otherwise.

type TrainResult struct {
	Skill rules.Skill
	Level int
}

type PatrolResult struct {
	Encounter  bool
	Outcome    combat.Outcome
	Honor      int
	TotalHonor int
	Stats      ledger.Stats
	Promotion  string
}

type ScavengeResult struct {
	Haul map[string]int
}

type CraftResult struct {
	Item     string
	Category string
	Bonus    int
}

type UseResult struct {
	Item          string
	Honor         int
	TotalHonor    int
	ResetCooldown string
	Promotion     string
}

type DefendResult = event.JoinResult

type HitResult = event.StrikeResult

type SaluteResult struct {
	From       string
	To         string
	Honor      int
	TotalHonor int
	Promotion  string
}

// HonorView is a player's standing on the rank ladder.
type HonorView struct {
	Player    string
	Honor     int
	Rank      string
	Pinned    bool
	NextRank  string // empty at the top of the acquirable ladder
	NextHonor int
}

// StatsView is everything the stats command shows.
type StatsView struct {
	HonorView
	Skills      ledger.SkillSet
	Stats       ledger.Stats
	Inventory   ledger.Inventory
	Power       int
	WeaponBonus int
	Cooldowns   map[string]time.Duration // only actions still cooling down
}

// Standing is a leaderboard row.
type Standing struct {
	Place  int
	Player string
	Honor  int
	Rank   string
}
