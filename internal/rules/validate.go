package rules

import (
	"errors"
	"fmt"
)

// Validate checks the semantic invariants the schema cannot express.
func (r *Rules) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if len(r.Ranks) == 0 {
		add("at least one rank is required")
	}
	seenPinned := false
	for i, rk := range r.Ranks {
		if rk.Pinned {
			seenPinned = true
		} else if seenPinned {
			add("rank %q is acquirable but follows a pinned rank", rk.Name)
		}
		if i == 0 {
			if rk.Pinned {
				add("base rank %q cannot be pinned", rk.Name)
			}
			continue
		}
		prev := r.Ranks[i-1]
		if rk.HonorThreshold <= prev.HonorThreshold {
			add("rank %q honor_threshold %d must exceed %q (%d)", rk.Name, rk.HonorThreshold, prev.Name, prev.HonorThreshold)
		}
		if rk.PowerWeight <= prev.PowerWeight {
			add("rank %q power_weight %d must exceed %q (%d)", rk.Name, rk.PowerWeight, prev.Name, prev.PowerWeight)
		}
	}
	if len(r.roleIdx) != len(r.Ranks) {
		add("rank roles must be unique")
	}

	materials := make(map[string]bool, len(r.Materials))
	for _, m := range r.Materials {
		if materials[m.Name] {
			add("material %q declared twice", m.Name)
		}
		materials[m.Name] = true
		if r.RarityWeights[m.Rarity] <= 0 {
			add("material %q has rarity %q without a positive weight", m.Name, m.Rarity)
		}
	}

	if len(r.recipeIdx) != len(r.Recipes) {
		add("recipe names must be unique")
	}
	for _, rc := range r.Recipes {
		if len(rc.Materials) == 0 {
			add("recipe %q has no materials", rc.Name)
		}
		for name, n := range rc.Materials {
			if !materials[name] {
				add("recipe %q uses unknown material %q", rc.Name, name)
			}
			if n <= 0 {
				add("recipe %q needs a positive count of %q", rc.Name, name)
			}
		}
		if rc.Use != nil {
			if rc.Category != CategoryConsumable {
				add("recipe %q has a use effect but is not a consumable", rc.Name)
			}
			if rc.Use.ResetCooldown != "" {
				if _, ok := r.Cooldowns.Actions[rc.Use.ResetCooldown]; !ok {
					add("recipe %q resets unknown cooldown %q", rc.Name, rc.Use.ResetCooldown)
				}
			}
			if rc.Use.Honor != "" {
				if err := CheckFormula(rc.Use.Honor); err != nil {
					add("recipe %q honor formula: %v", rc.Name, err)
				}
			}
		}
	}

	for action, secs := range r.Cooldowns.Actions {
		if secs > 0 && secs < r.Cooldowns.MinimumSeconds {
			add("cooldowns.actions.%s: %ds is below minimum_seconds %d", action, secs, r.Cooldowns.MinimumSeconds)
		}
	}

	for _, rg := range []struct {
		name string
		r    Range
	}{
		{"patrol.uneventful_honor", r.Patrol.UneventfulHonor},
		{"patrol.victory_honor", r.Patrol.VictoryHonor},
		{"salute.honor", r.Salute.Honor},
		{"events.attack.reward", r.Events.Attack.Reward},
		{"events.world_boss.reward", r.Events.WorldBoss.Reward},
	} {
		if rg.r.Min > rg.r.Max {
			add("%s: min %d exceeds max %d", rg.name, rg.r.Min, rg.r.Max)
		}
	}
	if r.Events.WorldBoss.Capacity <= 0 {
		add("events.world_boss.capacity must be positive")
	}

	return errors.Join(errs...)
}
