package game

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ledger"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

func parseSkill(name string) (rules.Skill, error) {
	sk, ok := rules.ParseSkill(name)
	if !ok {
		return "", fault.Invalid("unknown skill %q (choose strength, agility, intelligence or endurance)", name)
	}
	return sk, nil
}

// Train raises one skill by a level.
func (e *Engine) Train(ctx context.Context, player, skill string) (TrainResult, error) {
	sk, err := parseSkill(skill)
	if err != nil {
		return TrainResult{}, err
	}
	if e.ledger.Skills(player).Level(sk) >= rules.MaxSkill {
		return TrainResult{}, &ledger.AtCapError{Skill: sk}
	}
	if err := e.consume(player, ActionTrain); err != nil {
		return TrainResult{}, err
	}
	level, err := e.ledger.TrainSkill(ctx, player, sk)
	if err != nil {
		return TrainResult{}, err
	}
	return TrainResult{Skill: sk, Level: level}, nil
}

// Patrol is a solo outing: usually uneventful, sometimes an encounter.
func (e *Engine) Patrol(ctx context.Context, player string) (PatrolResult, error) {
	if err := e.consume(player, ActionPatrol); err != nil {
		return PatrolResult{}, err
	}
	pr := e.rules.Patrol
	res := PatrolResult{Stats: e.ledger.Stats(player)}

	if e.rnd.Float64() < pr.EncounterChance {
		res.Encounter = true
		res.Outcome = e.combat.EncounterOutcome(e.fighter(ctx, player))
		stats, err := e.ledger.RecordPatrol(ctx, player, res.Outcome == combat.Win)
		if err != nil {
			return PatrolResult{}, err
		}
		res.Stats = stats
		if res.Outcome == combat.Win {
			res.Honor = combat.Roll(e.rnd, pr.VictoryHonor)
		}
	} else {
		res.Honor = combat.Roll(e.rnd, pr.UneventfulHonor)
	}

	res.TotalHonor = e.ledger.Honor(player)
	if res.Honor > 0 {
		total, err := e.ledger.AdjustHonor(ctx, player, res.Honor)
		if err != nil {
			return PatrolResult{}, err
		}
		res.TotalHonor = total
		res.Promotion = e.promotion(ctx, player)
	}
	return res, nil
}

// Scavenge searches for materials.
func (e *Engine) Scavenge(ctx context.Context, player string) (ScavengeResult, error) {
	if err := e.consume(player, ActionScavenge); err != nil {
		return ScavengeResult{}, err
	}
	haul, err := e.economy.Scavenge(ctx, player)
	if err != nil {
		return ScavengeResult{}, err
	}
	return ScavengeResult{Haul: haul}, nil
}

// Craft builds one item from a recipe.
func (e *Engine) Craft(ctx context.Context, player, recipe string) (CraftResult, error) {
	rc, err := e.economy.Craft(ctx, player, recipe)
	if err != nil {
		return CraftResult{}, err
	}
	return CraftResult{Item: rc.Name, Category: rc.Category, Bonus: rc.CombatBonus}, nil
}

// Use consumes one crafted consumable.
func (e *Engine) Use(ctx context.Context, player, item string) (UseResult, error) {
	rc, ok := e.rules.Recipe(item)
	if !ok {
		return UseResult{}, fault.Invalid("unknown item %q", item)
	}
	if have := e.ledger.Inventory(player).CraftedItems[rc.Name]; have < 1 {
		return UseResult{}, &ledger.InsufficientItemError{Item: rc.Name, Have: have, Want: 1}
	}
	if err := e.consume(player, ActionUse); err != nil {
		return UseResult{}, err
	}
	power := e.combat.RankPowerWeight(e.roles(ctx, player))
	used, err := e.economy.Use(ctx, player, rc.Name, power)
	if err != nil {
		return UseResult{}, err
	}
	res := UseResult{
		Item:          used.Item,
		Honor:         used.Honor,
		TotalHonor:    used.TotalHonor,
		ResetCooldown: used.ResetCooldown,
	}
	if used.ResetCooldown != "" {
		e.cooldowns.Reset(player, used.ResetCooldown)
	}
	if used.Honor != 0 {
		res.Promotion = e.promotion(ctx, player)
	}
	return res, nil
}

// Defend joins the open attack.
func (e *Engine) Defend(_ context.Context, player string) (DefendResult, error) {
	return e.events.Join(player)
}

// Hit strikes the open world boss.
func (e *Engine) Hit(ctx context.Context, player string) (HitResult, error) {
	if e.events.Status(event.ClassWorldBoss).State != event.Announced {
		return HitResult{}, &event.NoActiveEventError{Class: event.ClassWorldBoss}
	}
	if err := e.consume(player, ActionHit); err != nil {
		return HitResult{}, err
	}
	dmg := e.combat.BossDamage(e.fighter(ctx, player))
	res, err := e.events.Strike(ctx, player, dmg)
	var gone *event.NoActiveEventError
	if errors.As(err, &gone) {
		// the boss fell between the status check and the strike
		e.cooldowns.Reset(player, ActionHit)
	}
	return res, err
}

// Salute gives another player a little honor.
func (e *Engine) Salute(ctx context.Context, from, to string) (SaluteResult, error) {
	if from == to {
		return SaluteResult{}, fault.Invalid("you cannot salute yourself")
	}
	if err := e.consume(from, ActionSalute); err != nil {
		return SaluteResult{}, err
	}
	gain := combat.Roll(e.rnd, e.rules.Salute.Honor)
	total, err := e.ledger.AdjustHonor(ctx, to, gain)
	if err != nil {
		return SaluteResult{}, err
	}
	e.log.Debug("salute", zap.String("from", from), zap.String("to", to), zap.Int("honor", gain))
	return SaluteResult{From: from, To: to, Honor: gain, TotalHonor: total, Promotion: e.promotion(ctx, to)}, nil
}
