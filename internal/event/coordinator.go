// Package event runs the contested group events: the attack every defender
// can join and the world boss every player can strike. Each class is a small
// state machine driven by commands and a once-a-second scheduler tick.
package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ranks"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// TickInterval is how often Run drives the state machines.
const TickInterval = time.Second

const publishTimeout = 10 * time.Second

// Rewarder pays honor out. The ledger implements it.
type Rewarder interface {
	AdjustHonor(ctx context.Context, player string, delta int) (int, error)
}

// Reconciler updates rank roles after a payout.
type Reconciler interface {
	Reconcile(ctx context.Context, player string) ranks.Change
}

// FighterFunc snapshots a player for combat.
type FighterFunc func(ctx context.Context, player string) combat.Fighter

// Config wires a Coordinator.
type Config struct {
	Rules     *rules.Rules
	Combat    *combat.Resolver
	Rewards   Rewarder
	Ranks     Reconciler
	Fighters  FighterFunc
	Publisher Publisher
	Now       func() time.Time
	Log       *zap.Logger
	Enabled   bool
}

type instance struct {
	id       ulid.ULID
	class    Class
	state    State
	deadline time.Time
	capacity int
	hp       int
	reason   string

	order  []string // first join or strike order
	joined map[string]bool
	damage map[string]int

	claimed atomic.Bool
}

func (in *instance) add(player string) bool {
	if in.joined[player] {
		return false
	}
	in.joined[player] = true
	in.order = append(in.order, player)
	return true
}

// JoinResult is returned by Join.
type JoinResult struct {
	ID        ulid.ULID
	Joined    bool // false when the player was already defending
	Defenders int
	Remaining time.Duration
}

// StrikeResult is returned by Strike. Outcome is set when the strike
// exhausted the boss and resolved the event.
type StrikeResult struct {
	ID        ulid.ULID
	Damage    int
	HP        int
	Capacity  int
	Remaining time.Duration
	Outcome   *Outcome
}

// Coordinator owns the transient state of every event class.
type Coordinator struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	slots    map[Class]*instance
	enabled  bool
	lastRoll time.Time
}

// New returns a Coordinator with every class Idle.
func New(cfg Config) *Coordinator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Publisher == nil {
		cfg.Publisher = LogPublisher{Log: cfg.Log}
	}
	return &Coordinator{
		cfg:      cfg,
		log:      cfg.Log.Named("event"),
		slots:    make(map[Class]*instance),
		enabled:  cfg.Enabled,
		lastRoll: cfg.Now(),
	}
}

func (c *Coordinator) rulesFor(class Class) rules.EventRules {
	if class == ClassWorldBoss {
		return c.cfg.Rules.Events.WorldBoss
	}
	return c.cfg.Rules.Events.Attack
}

// SetEnabled turns the timer triggers on or off. An open event always runs
// to resolution.
func (c *Coordinator) SetEnabled(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = on
	c.log.Info("timer triggers toggled", zap.Bool("enabled", on))
}

// Enabled reports whether timer triggers are on.
func (c *Coordinator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Status returns a view of the class slot.
func (c *Coordinator) Status(class Class) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	in := c.slots[class]
	if in == nil {
		return Status{Class: class, State: Idle}
	}
	return Status{
		ID:           in.id,
		Class:        class,
		State:        in.state,
		Deadline:     in.deadline,
		Participants: len(in.order),
		Capacity:     in.capacity,
		Remaining:    in.hp,
	}
}

// Trigger opens a new event. Forced triggers ignore the enabled switch.
func (c *Coordinator) Trigger(ctx context.Context, class Class, forced bool) (Announcement, error) {
	c.mu.Lock()
	a, err := c.openLocked(class, forced)
	c.mu.Unlock()
	if err != nil {
		return Announcement{}, err
	}
	c.announce(ctx, a)
	return a, nil
}

func (c *Coordinator) openLocked(class Class, forced bool) (Announcement, error) {
	if !forced && !c.enabled {
		return Announcement{}, DisabledError{}
	}
	if in := c.slots[class]; in != nil {
		return Announcement{}, &AlreadyActiveError{Class: class, State: in.state}
	}
	now := c.cfg.Now()
	er := c.rulesFor(class)
	in := &instance{
		id:       ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		class:    class,
		state:    Announced,
		deadline: now.Add(time.Duration(er.WindowSeconds) * time.Second),
		joined:   make(map[string]bool),
		damage:   make(map[string]int),
	}
	if class == ClassWorldBoss {
		in.capacity, in.hp = er.Capacity, er.Capacity
	}
	c.slots[class] = in
	c.log.Info("event opened", zap.Stringer("id", in.id), zap.String("class", string(class)), zap.Bool("forced", forced))
	return Announcement{ID: in.id, Class: class, Deadline: in.deadline, Capacity: in.capacity, Forced: forced}, nil
}

// Join adds player to the defenders of the open attack. Joining twice is a
// successful no-op.
func (c *Coordinator) Join(player string) (JoinResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	in := c.slots[ClassAttack]
	if in == nil || in.state != Announced {
		return JoinResult{}, &NoActiveEventError{Class: ClassAttack}
	}
	added := in.add(player)
	return JoinResult{
		ID:        in.id,
		Joined:    added,
		Defenders: len(in.order),
		Remaining: in.deadline.Sub(c.cfg.Now()),
	}, nil
}

// Strike deals damage to the open world boss. The strike that takes the boss
// to zero closes the window and resolves the event before returning.
func (c *Coordinator) Strike(ctx context.Context, player string, damage int) (StrikeResult, error) {
	c.mu.Lock()
	in := c.slots[ClassWorldBoss]
	if in == nil || in.state != Announced {
		c.mu.Unlock()
		return StrikeResult{}, &NoActiveEventError{Class: ClassWorldBoss}
	}
	in.add(player)
	in.damage[player] += damage
	in.hp -= damage
	res := StrikeResult{
		ID:        in.id,
		Damage:    damage,
		HP:        max(in.hp, 0),
		Capacity:  in.capacity,
		Remaining: in.deadline.Sub(c.cfg.Now()),
	}
	closed := in.hp <= 0 && c.closeLocked(in, ReasonCapacity)
	c.mu.Unlock()

	if closed {
		out := c.resolve(ctx, in)
		res.Outcome = &out
	}
	return res, nil
}

// closeLocked moves an Announced instance to ResolutionPending. Only the
// first caller gets true.
func (c *Coordinator) closeLocked(in *instance, reason string) bool {
	if in.state != Announced || !in.claimed.CompareAndSwap(false, true) {
		return false
	}
	in.state = ResolutionPending
	in.reason = reason
	return true
}

// Tick closes expired windows and, once per minute while enabled, rolls the
// timer trigger of each idle class.
func (c *Coordinator) Tick(ctx context.Context) {
	now := c.cfg.Now()

	var expired []*instance
	var opened []Announcement

	c.mu.Lock()
	for _, class := range Classes {
		if in := c.slots[class]; in != nil && !now.Before(in.deadline) && c.closeLocked(in, ReasonDeadline) {
			expired = append(expired, in)
		}
	}
	if now.Sub(c.lastRoll) >= time.Minute {
		c.lastRoll = now
		if c.enabled {
			for _, class := range Classes {
				if c.slots[class] != nil {
					continue
				}
				if c.cfg.Combat.Rand().Float64() >= c.rulesFor(class).ChancePerMinute {
					continue
				}
				if a, err := c.openLocked(class, false); err == nil {
					opened = append(opened, a)
				}
			}
		}
	}
	c.mu.Unlock()

	for _, in := range expired {
		c.resolve(ctx, in)
	}
	for _, a := range opened {
		c.announce(ctx, a)
	}
}

// Run ticks until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	t := time.NewTicker(TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.Tick(ctx)
		}
	}
}

func (c *Coordinator) resolve(ctx context.Context, in *instance) Outcome {
	var out Outcome
	switch in.class {
	case ClassAttack:
		out = c.resolveAttack(ctx, in)
	case ClassWorldBoss:
		out = c.resolveBoss(ctx, in)
	}
	out.ID, out.Class, out.Reason, out.ResolvedAt = in.id, in.class, in.reason, c.cfg.Now()

	c.mu.Lock()
	in.state = Resolved
	c.mu.Unlock()

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	if err := c.cfg.Publisher.Publish(pctx, out); err != nil {
		c.log.Warn("outcome not delivered", zap.Stringer("id", in.id), zap.Error(err))
	}
	cancel()

	c.mu.Lock()
	if c.slots[in.class] == in {
		delete(c.slots, in.class)
	}
	c.mu.Unlock()
	return out
}

func (c *Coordinator) resolveAttack(ctx context.Context, in *instance) Outcome {
	fighters := make([]combat.Fighter, len(in.order))
	for i, p := range in.order {
		fighters[i] = c.cfg.Fighters(ctx, p)
	}
	def := c.cfg.Combat.GroupDefenseOutcome(fighters, c.rulesFor(ClassAttack).FlatBase)
	out := Outcome{Victory: def.Victory, Defense: &def}
	out.Rewards = c.payout(ctx, in, def.Victory)
	return out
}

func (c *Coordinator) resolveBoss(ctx context.Context, in *instance) Outcome {
	victory := in.hp <= 0
	out := Outcome{Victory: victory, Capacity: in.capacity, Remaining: max(in.hp, 0)}
	out.Rewards = c.payout(ctx, in, victory)
	return out
}

// payout pays every participant on victory and lists them either way.
func (c *Coordinator) payout(ctx context.Context, in *instance, victory bool) []Reward {
	reward := c.rulesFor(in.class).Reward
	out := make([]Reward, 0, len(in.order))
	for _, p := range in.order {
		r := Reward{Player: p, Damage: in.damage[p]}
		if victory {
			gain := combat.Roll(c.cfg.Combat.Rand(), reward)
			if _, err := c.cfg.Rewards.AdjustHonor(ctx, p, gain); err != nil {
				c.log.Error("reward not persisted", zap.Stringer("id", in.id), zap.String("player", p), zap.Error(err))
			} else {
				r.Honor = gain
				if ch := c.cfg.Ranks.Reconcile(ctx, p); ch.Changed {
					r.Rank = ch.To
				}
			}
		}
		out = append(out, r)
	}
	return out
}

func (c *Coordinator) announce(ctx context.Context, a Announcement) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := c.cfg.Publisher.Announce(pctx, a); err != nil {
		c.log.Warn("announcement not delivered", zap.Stringer("id", a.ID), zap.Error(err))
	}
}
