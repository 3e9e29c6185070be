package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/game"
	"github.com/AustinNewburry/DavisDefenseBot/internal/parser"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

func (d *Dispatcher) renderPatrol(caller Caller, res game.PatrolResult) *Reply {
	var r *Reply
	switch {
	case !res.Encounter:
		r = reply("🚶 %s patrolled the perimeter. All quiet. +%d honor (now %d).", caller.Name, res.Honor, res.TotalHonor)
	case res.Outcome == combat.Win:
		r = reply("💥 %s ran into hostiles and won! +%d honor (now %d). Streak: %d.",
			caller.Name, res.Honor, res.TotalHonor, res.Stats.KillStreak)
	default:
		r = reply("🩸 %s ran into hostiles and had to fall back. Streak lost.", caller.Name)
	}
	d.addPromotion(r, caller.ID, res.Promotion)
	return r
}

func (d *Dispatcher) renderUse(caller Caller, res game.UseResult) *Reply {
	var parts []string
	if res.Honor != 0 {
		parts = append(parts, fmt.Sprintf("+%d honor (now %d)", res.Honor, res.TotalHonor))
	}
	if res.ResetCooldown != "" {
		parts = append(parts, res.ResetCooldown+" is ready again")
	}
	msg := fmt.Sprintf("🎒 %s used a %s.", caller.Name, res.Item)
	if len(parts) > 0 {
		msg += " " + strings.Join(parts, ", ") + "."
	}
	r := &Reply{Messages: []string{msg}}
	d.addPromotion(r, caller.ID, res.Promotion)
	return r
}

func (d *Dispatcher) renderHonor(v game.HonorView) string {
	s := fmt.Sprintf("🎖 %s: %s, %d honor", d.name(v.Player), v.Rank, v.Honor)
	if v.NextRank != "" {
		s += fmt.Sprintf(" (%d to %s)", v.NextHonor-v.Honor, v.NextRank)
	}
	return s + "."
}

func (d *Dispatcher) renderStats(v game.StatsView) string {
	var b strings.Builder
	b.WriteString(d.renderHonor(v.HonorView))
	fmt.Fprintf(&b, "\nPower %d, weapon +%d", v.Power, v.WeaponBonus)
	fmt.Fprintf(&b, "\nSTR %d  AGI %d  INT %d  END %d",
		v.Skills.Strength, v.Skills.Agility, v.Skills.Intelligence, v.Skills.Endurance)
	fmt.Fprintf(&b, "\nPatrol wins %d, streak %d", v.Stats.PatrolWins, v.Stats.KillStreak)
	if len(v.Inventory.Materials) > 0 {
		fmt.Fprintf(&b, "\nMaterials: %s", formatCounts(v.Inventory.Materials))
	}
	if len(v.Inventory.CraftedItems) > 0 {
		fmt.Fprintf(&b, "\nItems: %s", formatCounts(v.Inventory.CraftedItems))
	}
	if len(v.Cooldowns) > 0 {
		actions := make([]string, 0, len(v.Cooldowns))
		for a := range v.Cooldowns {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		parts := make([]string, len(actions))
		for i, a := range actions {
			parts[i] = fmt.Sprintf("%s %s", a, roundDuration(v.Cooldowns[a]))
		}
		fmt.Fprintf(&b, "\nCooldowns: %s", strings.Join(parts, ", "))
	}
	return b.String()
}

func renderRecipes(recipes []rules.Recipe) string {
	var b strings.Builder
	b.WriteString("📜 Recipes")
	for _, rc := range recipes {
		fmt.Fprintf(&b, "\n%s (%s): %s", rc.Name, rc.Category, formatCounts(rc.Materials))
		if rc.CombatBonus > 0 {
			fmt.Fprintf(&b, ", +%d combat", rc.CombatBonus)
		}
		if req := rc.SkillRequirement; req != nil {
			fmt.Fprintf(&b, ", needs %s %d", req.Skill, req.Level)
		}
	}
	return b.String()
}

func (d *Dispatcher) renderTop(rows []game.Standing) string {
	if len(rows) == 0 {
		return "Nobody has earned any honor yet."
	}
	var b strings.Builder
	b.WriteString("🏆 Leaderboard")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%d. %s, %s, %d", r.Place, d.name(r.Player), r.Rank, r.Honor)
	}
	return b.String()
}

func renderEvents(statuses []event.Status, enabled bool) string {
	var b strings.Builder
	if enabled {
		b.WriteString("Random events are on.")
	} else {
		b.WriteString("Random events are off.")
	}
	for _, s := range statuses {
		fmt.Fprintf(&b, "\n%s: %s", s.Class, s.State)
		if s.State == event.Announced {
			fmt.Fprintf(&b, ", %d joined", s.Participants)
			if s.Capacity > 0 {
				fmt.Fprintf(&b, ", %s", healthBar(s.Remaining, s.Capacity))
			}
		}
	}
	return b.String()
}

func renderHelp(topic string, owner bool) string {
	if topic != "" {
		if usage, ok := parser.Usage[parser.Keyword(topic)]; ok {
			return "usage: " + usage
		}
		return fmt.Sprintf("no help for %q", topic)
	}
	player := []string{"train", "patrol", "scavenge", "craft", "use", "defend", "hit", "salute", "honor", "stats", "recipes", "top", "events"}
	admin := []string{"sethonor", "addhonor", "setskill", "force", "games", "grant", "revoke"}

	var b strings.Builder
	b.WriteString("Commands:")
	for _, k := range player {
		b.WriteString("\n/" + parser.Usage[k])
	}
	if owner {
		b.WriteString("\nAdmin:")
		for _, k := range admin {
			b.WriteString("\n/" + parser.Usage[k])
		}
	}
	return b.String()
}

// RenderAnnouncement is the chat text for an opened event.
func RenderAnnouncement(a event.Announcement, now time.Time) string {
	left := roundDuration(a.Deadline.Sub(now))
	if a.Class == event.ClassWorldBoss {
		return fmt.Sprintf("🐉 A world boss has appeared with %d HP! /hit it within %s.", a.Capacity, left)
	}
	return fmt.Sprintf("🚨 The base is under attack! /defend within %s.", left)
}

// RenderOutcome is the chat text for a resolved event. name maps player ids to display names.
func RenderOutcome(o event.Outcome, name func(string) string) string {
	var b strings.Builder
	switch {
	case o.Class == event.ClassWorldBoss && o.Victory:
		b.WriteString("🏆 The world boss has fallen!")
	case o.Class == event.ClassWorldBoss:
		fmt.Fprintf(&b, "💨 The world boss escaped with %d HP left.", o.Remaining)
	case o.Victory:
		fmt.Fprintf(&b, "🏆 The attack was repelled! (%d vs %d)", o.Defense.Defense, o.Defense.Attack)
	case len(o.Rewards) == 0:
		b.WriteString("💀 Nobody defended the base. The attackers overran it.")
	default:
		fmt.Fprintf(&b, "💀 The defenders were overrun. (%d vs %d)", o.Defense.Defense, o.Defense.Attack)
	}
	for _, r := range o.Rewards {
		if r.Honor == 0 && r.Damage == 0 {
			continue
		}
		b.WriteString("\n" + name(r.Player))
		if r.Damage > 0 {
			fmt.Fprintf(&b, ": %d damage", r.Damage)
		}
		if r.Honor > 0 {
			fmt.Fprintf(&b, ", +%d honor", r.Honor)
		}
		if r.Rank != "" {
			fmt.Fprintf(&b, ", promoted to %s", r.Rank)
		}
	}
	return b.String()
}

func formatCounts(m map[string]int) string {
	names := make([]string, 0, len(m))
	for k, n := range m {
		if n > 0 {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return "nothing"
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%d %s", m[k], k)
	}
	return strings.Join(parts, ", ")
}

func roundDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d.Round(time.Second)
}

func healthBar(hp, capacity int) string {
	const width = 10
	if capacity <= 0 {
		return ""
	}
	filled := hp * width / capacity
	if hp > 0 && filled == 0 {
		filled = 1
	}
	return fmt.Sprintf("[%s%s] %d/%d", strings.Repeat("█", filled), strings.Repeat("░", width-filled), hp, capacity)
}
