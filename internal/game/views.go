package game

import (
	"context"
	"time"

	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// Honor returns the player's honor and rank.
func (e *Engine) Honor(ctx context.Context, player string) HonorView {
	honor := e.ledger.Honor(player)
	rk := e.rules.Rank(e.ranks.Tier(ctx, player))
	v := HonorView{Player: player, Honor: honor, Rank: rk.Name, Pinned: rk.Pinned}
	if rk.Pinned {
		return v
	}
	cur, _ := e.rules.AcquirableTierFor(honor)
	if next := cur + 1; int(next) < len(e.rules.Ranks) && !e.rules.Rank(next).Pinned {
		v.NextRank = e.rules.Rank(next).Name
		v.NextHonor = e.rules.Rank(next).HonorThreshold
	}
	return v
}

// Stats returns the full player sheet.
func (e *Engine) Stats(ctx context.Context, player string) StatsView {
	rec := e.ledger.Record(player)
	f := e.fighter(ctx, player)
	v := StatsView{
		HonorView:   e.Honor(ctx, player),
		Skills:      rec.Skills,
		Stats:       rec.Stats,
		Inventory:   rec.Inventory,
		Power:       e.combat.RankPowerWeight(f.Roles),
		WeaponBonus: e.combat.WeaponBonus(f.Items),
		Cooldowns:   make(map[string]time.Duration),
	}
	for action := range e.rules.Cooldowns.Actions {
		base, mod := e.cooldownFor(player, action)
		if left := e.cooldowns.Remaining(player, action, base, mod); left > 0 {
			v.Cooldowns[action] = left
		}
	}
	return v
}

// Leaderboard returns the top n players by honor.
func (e *Engine) Leaderboard(ctx context.Context, n int) []Standing {
	rows := e.ledger.Leaderboard(n)
	out := make([]Standing, len(rows))
	for i, r := range rows {
		out[i] = Standing{
			Place:  i + 1,
			Player: r.Player,
			Honor:  r.Honor,
			Rank:   e.rules.Rank(e.ranks.Tier(ctx, r.Player)).Name,
		}
	}
	return out
}

// Recipes lists every recipe in table order.
func (e *Engine) Recipes() []rules.Recipe {
	return append([]rules.Recipe(nil), e.rules.Recipes...)
}

// EventStatus reports the state of both event classes.
func (e *Engine) EventStatus() []event.Status {
	out := make([]event.Status, len(event.Classes))
	for i, c := range event.Classes {
		out[i] = e.events.Status(c)
	}
	return out
}
