// Package crafting is the material economy: scavenging, crafting and using items.
package crafting

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ledger"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// SkillTooLowError is returned when a recipe's skill requirement is not met.
type SkillTooLowError struct {
	Recipe string
	Skill  rules.Skill
	Have   int
	Need   int
}

func (e *SkillTooLowError) Error() string {
	return fmt.Sprintf("%s requires %s %d (you have %d)", e.Recipe, e.Skill, e.Need, e.Have)
}
func (e *SkillTooLowError) Kind() fault.Kind { return fault.Resource }

// UseResult is what consuming an item did. The caller applies ResetCooldown.
type UseResult struct {
	Item          string
	Honor         int
	TotalHonor    int
	ResetCooldown string
}

// Economy runs crafting transactions against the ledger.
type Economy struct {
	rules  *rules.Rules
	ledger *ledger.Ledger
	rnd    combat.Rand
	eval   *rules.Evaluator
	log    *zap.Logger
}

// New returns an Economy. Item formulas roll with rnd.
func New(r *rules.Rules, l *ledger.Ledger, rnd combat.Rand, log *zap.Logger) (*Economy, error) {
	eval, err := rules.NewEvaluator(combat.RollFunc(rnd))
	if err != nil {
		return nil, err
	}
	return &Economy{rules: r, ledger: l, rnd: rnd, eval: eval, log: log}, nil
}

func (e *Economy) recipe(name string) (rules.Recipe, error) {
	rc, ok := e.rules.Recipe(name)
	if !ok {
		return rules.Recipe{}, fault.Invalid("unknown recipe %q", name)
	}
	return rc, nil
}

// Craft debits the recipe's materials and credits one item in one write.
// The skill requirement is checked before materials.
func (e *Economy) Craft(ctx context.Context, player, name string) (rules.Recipe, error) {
	rc, err := e.recipe(name)
	if err != nil {
		return rules.Recipe{}, err
	}
	if req := rc.SkillRequirement; req != nil {
		if have := e.ledger.Skills(player).Level(req.Skill); have < req.Level {
			return rules.Recipe{}, &SkillTooLowError{Recipe: rc.Name, Skill: req.Skill, Have: have, Need: req.Level}
		}
	}
	if err := e.ledger.Craft(ctx, player, rc.Materials, rc.Name); err != nil {
		return rules.Recipe{}, err
	}
	e.log.Info("item crafted", zap.String("player", player), zap.String("item", rc.Name))
	return rc, nil
}

// Draws is how many materials a scavenge yields at an intelligence level.
func (e *Economy) Draws(intelligence int) int {
	s := e.rules.Scavenge
	return s.BaseDraws + intelligence/s.IntelligencePerDraw
}

// Scavenge draws materials weighted by rarity and credits the whole haul.
func (e *Economy) Scavenge(ctx context.Context, player string) (map[string]int, error) {
	n := e.Draws(e.ledger.Skills(player).Intelligence)
	haul := make(map[string]int)
	for i := 0; i < n; i++ {
		haul[e.drawMaterial()]++
	}
	if err := e.ledger.AddMaterials(ctx, player, haul); err != nil {
		return nil, err
	}
	return haul, nil
}

func (e *Economy) drawMaterial() string {
	total := 0
	for _, m := range e.rules.Materials {
		total += e.rules.RarityWeights[m.Rarity]
	}
	pick := e.rnd.Intn(total)
	for _, m := range e.rules.Materials {
		pick -= e.rules.RarityWeights[m.Rarity]
		if pick < 0 {
			return m.Name
		}
	}
	return e.rules.Materials[len(e.rules.Materials)-1].Name
}

// Use consumes one crafted consumable and applies its honor effect. power is
// the player's current rank power weight, visible to the formula.
func (e *Economy) Use(ctx context.Context, player, item string, power int) (UseResult, error) {
	rc, err := e.recipe(item)
	if err != nil {
		return UseResult{}, err
	}
	if rc.Category != rules.CategoryConsumable || rc.Use == nil {
		return UseResult{}, fault.Invalid("%s cannot be used", rc.Name)
	}

	gain := 0
	if rc.Use.Honor != "" {
		gain, err = e.eval.EvalInt(rc.Use.Honor, rules.FormulaContext{
			Skills: e.ledger.Skills(player).Map(),
			Honor:  e.ledger.Honor(player),
			Power:  power,
		})
		if err != nil {
			return UseResult{}, fmt.Errorf("evaluate %s: %w", rc.Name, err)
		}
	}

	if err := e.ledger.ConsumeCraftedItem(ctx, player, rc.Name, 1); err != nil {
		return UseResult{}, err
	}
	res := UseResult{Item: rc.Name, ResetCooldown: rc.Use.ResetCooldown, TotalHonor: e.ledger.Honor(player)}
	if gain != 0 {
		total, err := e.ledger.AdjustHonor(ctx, player, gain)
		if err != nil {
			return UseResult{}, err
		}
		res.Honor, res.TotalHonor = gain, total
	}
	return res, nil
}
