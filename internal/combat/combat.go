// Package combat computes power and probabilistic outcomes. Nothing here
// touches persistence; randomness always comes from the injected Rand.
package combat

import (
	"math"

	"github.com/AustinNewburry/DavisDefenseBot/internal/ledger"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// Fighter is the snapshot of a player that combat reads.
type Fighter struct {
	Player string
	Roles  []string
	Skills ledger.SkillSet
	Items  map[string]int
}

// Outcome of a solo encounter.
type Outcome int

const (
	Loss Outcome = iota
	Win
)

func (o Outcome) String() string {
	if o == Win {
		return "win"
	}
	return "loss"
}

// Defense is the result of a group defense.
type Defense struct {
	Victory  bool
	Defense  int
	Attack   int
	Modifier float64
}

const (
	baseWinChance    = 0.30
	winChancePerTier = 0.05
	maxWinChance     = 0.95

	attackFloorRatio  = 0.7
	difficultyStart   = 1.5
	difficultyPerHead = 0.1
	difficultyFloor   = 0.8

	bossRollMin = 5
	bossRollMax = 15
)

// Resolver binds the rank and recipe tables to a random source.
type Resolver struct {
	rules *rules.Rules
	rnd   Rand
}

// New returns a Resolver.
func New(r *rules.Rules, rnd Rand) *Resolver {
	return &Resolver{rules: r, rnd: rnd}
}

// Rand exposes the source for callers that roll reward ranges.
func (c *Resolver) Rand() Rand { return c.rnd }

// RankPowerWeight is the power weight of the highest rank among roles. A
// player with no rank role fights at the base tier's weight.
func (c *Resolver) RankPowerWeight(roles []string) int {
	t, _ := c.rules.HighestTier(roles)
	return c.rules.Rank(t).PowerWeight
}

// WeaponBonus is the best combat bonus among owned weapons, 0 with none.
func (c *Resolver) WeaponBonus(items map[string]int) int {
	best := 0
	for name, n := range items {
		if n <= 0 {
			continue
		}
		rc, ok := c.rules.Recipe(name)
		if !ok || rc.Category != rules.CategoryWeapon {
			continue
		}
		if rc.CombatBonus > best {
			best = rc.CombatBonus
		}
	}
	return best
}

// WinChance is the solo encounter win probability for a power weight.
func WinChance(weight int) float64 {
	return math.Min(baseWinChance+winChancePerTier*float64(weight), maxWinChance)
}

// EncounterOutcome rolls a solo encounter.
func (c *Resolver) EncounterOutcome(f Fighter) Outcome {
	if c.rnd.Float64() < WinChance(c.RankPowerWeight(f.Roles)) {
		return Win
	}
	return Loss
}

// DifficultyModifier shrinks as more defenders join, never below 0.8.
func DifficultyModifier(defenders int) float64 {
	if defenders < 1 {
		defenders = 1
	}
	return math.Max(difficultyFloor, difficultyStart-difficultyPerHead*float64(defenders-1))
}

// GroupDefenseOutcome resolves an attack against the defenders. With no
// defenders the attack wins and nothing is drawn.
func (c *Resolver) GroupDefenseOutcome(defenders []Fighter, flatBase int) Defense {
	if len(defenders) == 0 {
		return Defense{}
	}
	strength := 0
	for _, d := range defenders {
		strength += c.RankPowerWeight(d.Roles) + d.Skills.Agility
	}
	mod := DifficultyModifier(len(defenders))
	lo := attackFloorRatio * float64(strength)
	hi := mod * float64(strength)
	attack := int(math.Round(lo+c.rnd.Float64()*(hi-lo))) + flatBase
	return Defense{
		Victory:  strength >= attack,
		Defense:  strength,
		Attack:   attack,
		Modifier: mod,
	}
}

// BossDamage is one strike: a 5-15 roll plus rank weight, weapon bonus and strength.
func (c *Resolver) BossDamage(f Fighter) int {
	return Between(c.rnd, bossRollMin, bossRollMax) +
		c.RankPowerWeight(f.Roles) +
		c.WeaponBonus(f.Items) +
		f.Skills.Strength
}
