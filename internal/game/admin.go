package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
)

// Administrative commands. Callers are expected to have checked ownership.

// SetHonor overwrites a player's honor and reconciles their rank.
func (e *Engine) SetHonor(ctx context.Context, player string, value int) (HonorView, error) {
	if err := e.ledger.SetHonor(ctx, player, value); err != nil {
		return HonorView{}, err
	}
	e.log.Info("honor set", zap.String("player", player), zap.Int("honor", value))
	e.ranks.Reconcile(ctx, player)
	return e.Honor(ctx, player), nil
}

// AddHonor adds delta (possibly negative) to a player's honor.
func (e *Engine) AddHonor(ctx context.Context, player string, delta int) (HonorView, error) {
	total, err := e.ledger.AdjustHonor(ctx, player, delta)
	if err != nil {
		return HonorView{}, err
	}
	e.log.Info("honor adjusted", zap.String("player", player), zap.Int("delta", delta), zap.Int("honor", total))
	e.ranks.Reconcile(ctx, player)
	return e.Honor(ctx, player), nil
}

// SetSkill overwrites one skill level.
func (e *Engine) SetSkill(ctx context.Context, player, skill string, level int) (TrainResult, error) {
	sk, err := parseSkill(skill)
	if err != nil {
		return TrainResult{}, err
	}
	if err := e.ledger.SetSkill(ctx, player, sk, level); err != nil {
		return TrainResult{}, err
	}
	return TrainResult{Skill: sk, Level: level}, nil
}

// ForceEvent opens an event regardless of the timer switch.
func (e *Engine) ForceEvent(ctx context.Context, class string) (event.Announcement, error) {
	c, ok := event.ParseClass(class)
	if !ok {
		return event.Announcement{}, fault.Invalid("unknown event %q (choose attack or boss)", class)
	}
	return e.events.Trigger(ctx, c, true)
}

// SetFeaturesEnabled turns timer triggered events on or off.
func (e *Engine) SetFeaturesEnabled(on bool) {
	e.events.SetEnabled(on)
}

// FeaturesEnabled reports the timer switch.
func (e *Engine) FeaturesEnabled() bool {
	return e.events.Enabled()
}

// Grant gives a player a role through the local registry. Granting a rank
// lifts the player's honor to that rank's threshold.
func (e *Engine) Grant(ctx context.Context, player, role string) (HonorView, error) {
	if e.registry == nil {
		return HonorView{}, fault.Invalid("roles are managed by the chat platform")
	}
	if err := e.registry.Grant(ctx, player, role); err != nil {
		return HonorView{}, err
	}
	return e.Honor(ctx, player), nil
}

// Revoke removes a role through the local registry.
func (e *Engine) Revoke(ctx context.Context, player, role string) (HonorView, error) {
	if e.registry == nil {
		return HonorView{}, fault.Invalid("roles are managed by the chat platform")
	}
	if err := e.registry.Revoke(ctx, player, role); err != nil {
		return HonorView{}, err
	}
	return e.Honor(ctx, player), nil
}

// RaiseHonor lifts a player's honor to at least floor and reports whether it
// changed. Used by bulk imports that must never lower honor.
func (e *Engine) RaiseHonor(ctx context.Context, player string, floor int) (HonorView, bool, error) {
	_, raised, err := e.ledger.RaiseHonorTo(ctx, player, floor)
	if err != nil {
		return HonorView{}, false, err
	}
	if raised {
		e.ranks.Reconcile(ctx, player)
	}
	return e.Honor(ctx, player), raised, nil
}
