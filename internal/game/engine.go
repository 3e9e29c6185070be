// Package game is the engine context every command handler runs against. It
// is built once from the store and owns the ledger, rank sync, cooldowns,
// the crafting economy and the event coordinator.
package game

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/cooldown"
	"github.com/AustinNewburry/DavisDefenseBot/internal/crafting"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ledger"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ranks"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// Cooldown action names.
const (
	ActionTrain    = "train"
	ActionPatrol   = "patrol"
	ActionScavenge = "scavenge"
	ActionSalute   = "salute"
	ActionHit      = "hit"
	ActionUse      = "use"
)

// enduranceActions are the cooldowns shortened by endurance.
var enduranceActions = map[string]bool{ActionPatrol: true, ActionScavenge: true}

// Deps are the collaborators of an Engine. Only Rules, Store and Log are required.
type Deps struct {
	Rules     *rules.Rules
	Store     persistence.Store
	Authority ranks.Authority // nil opens a Registry on Store
	Rand      combat.Rand
	Now       func() time.Time
	Publisher event.Publisher
	Log       *zap.Logger

	GamesEnabled bool
}

// Engine is the game context.
type Engine struct {
	rules     *rules.Rules
	ledger    *ledger.Ledger
	registry  *ranks.Registry
	auth      ranks.Authority
	ranks     *ranks.Synchronizer
	cooldowns *cooldown.Manager
	combat    *combat.Resolver
	economy   *crafting.Economy
	events    *event.Coordinator
	rnd       combat.Rand
	now       func() time.Time
	log       *zap.Logger
}

// New loads the player tables and wires every component.
func New(ctx context.Context, d Deps) (*Engine, error) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = combat.NewRand(d.Now().UnixNano())
	}

	l, err := ledger.Open(ctx, d.Store, d.Log.Named("ledger"))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	e := &Engine{
		rules:     d.Rules,
		ledger:    l,
		auth:      d.Authority,
		cooldowns: cooldown.New(d.Now, time.Duration(d.Rules.Cooldowns.MinimumSeconds)*time.Second),
		combat:    combat.New(d.Rules, d.Rand),
		rnd:       d.Rand,
		now:       d.Now,
		log:       d.Log,
	}
	if e.auth == nil {
		known := append(d.Rules.AcquirableRoles(), d.Rules.PinnedRoles()...)
		e.registry, err = ranks.OpenRegistry(ctx, d.Store, known, d.Log.Named("roles"))
		if err != nil {
			return nil, fmt.Errorf("failed to open role registry: %w", err)
		}
		e.auth = e.registry
	}
	e.ranks = ranks.NewSynchronizer(d.Rules, e.auth, l, d.Log.Named("ranks"))
	if e.registry != nil {
		e.registry.OnChange(e.adoptRoles)
	}

	e.economy, err = crafting.New(d.Rules, l, d.Rand, d.Log.Named("crafting"))
	if err != nil {
		return nil, fmt.Errorf("failed to build crafting economy: %w", err)
	}

	e.events = event.New(event.Config{
		Rules:     d.Rules,
		Combat:    e.combat,
		Rewards:   l,
		Ranks:     e.ranks,
		Fighters:  e.fighter,
		Publisher: d.Publisher,
		Now:       d.Now,
		Log:       d.Log,
		Enabled:   d.GamesEnabled,
	})
	return e, nil
}

// Run drives the event scheduler until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("event scheduler started", zap.Duration("tick", event.TickInterval))
	return e.events.Run(ctx)
}

// Rules returns the loaded rule tables.
func (e *Engine) Rules() *rules.Rules { return e.rules }

// Ledger exposes the ledger for bulk tools such as imports.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Events exposes the coordinator.
func (e *Engine) Events() *event.Coordinator { return e.events }

func (e *Engine) adoptRoles(ctx context.Context, player string, roles []string) {
	if _, err := e.ranks.AdoptExternalPinnedBaseline(ctx, player, roles); err != nil {
		e.log.Error("could not adopt rank baseline", zap.String("player", player), zap.Error(err))
	}
}

func (e *Engine) roles(ctx context.Context, player string) []string {
	roles, err := e.auth.Roles(ctx, player)
	if err != nil {
		e.log.Warn("could not read roles", zap.String("player", player), zap.Error(err))
	}
	return roles
}

func (e *Engine) fighter(ctx context.Context, player string) combat.Fighter {
	return combat.Fighter{
		Player: player,
		Roles:  e.roles(ctx, player),
		Skills: e.ledger.Skills(player),
		Items:  e.ledger.Inventory(player).CraftedItems,
	}
}

func (e *Engine) cooldownFor(player, action string) (base, modifier time.Duration) {
	base = time.Duration(e.rules.CooldownSeconds(action)) * time.Second
	if enduranceActions[action] {
		per := time.Duration(e.rules.Cooldowns.EnduranceSecondsPerPoint) * time.Second
		modifier = time.Duration(e.ledger.Skills(player).Endurance) * per
	}
	return base, modifier
}

func (e *Engine) consume(player, action string) error {
	base, mod := e.cooldownFor(player, action)
	return e.cooldowns.TryConsume(player, action, base, mod)
}

// promotion reconciles the player's rank and returns the new rank role if it changed.
func (e *Engine) promotion(ctx context.Context, player string) string {
	if ch := e.ranks.Reconcile(ctx, player); ch.Changed {
		return ch.To
	}
	return ""
}
