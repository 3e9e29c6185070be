// Package dispatch turns a chat line from a known caller into an engine call
// and renders the result as text.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/game"
	"github.com/AustinNewburry/DavisDefenseBot/internal/parser"
)

// Caller is the identity a command runs as.
type Caller struct {
	ID   string
	Name string
}

// Directory maps @mentions to player ids and ids back to display names.
type Directory interface {
	Resolve(mention string) (string, bool)
	Name(player string) string
}

// Reply holds the messages produced by one command.
type Reply struct {
	Messages []string
}

func reply(format string, args ...any) *Reply {
	return &Reply{Messages: []string{fmt.Sprintf(format, args...)}}
}

// Dispatcher routes parsed commands to the engine.
type Dispatcher struct {
	engine *game.Engine
	parser *participle.Parser[parser.Command]
	owners map[string]bool
	dir    Directory
	log    *zap.Logger
}

// New returns a Dispatcher. owners may run admin commands. A nil dir treats
// "@name" as player id "name".
func New(engine *game.Engine, owners []string, dir Directory, log *zap.Logger) *Dispatcher {
	if dir == nil {
		dir = IdentityDirectory{}
	}
	d := &Dispatcher{
		engine: engine,
		parser: parser.Build(),
		owners: make(map[string]bool, len(owners)),
		dir:    dir,
		log:    log,
	}
	for _, o := range owners {
		d.owners[o] = true
	}
	return d
}

// IsOwner reports whether player may run admin commands.
func (d *Dispatcher) IsOwner(player string) bool {
	return d.owners[player]
}

// Execute runs one line as caller. The returned error is meant to be shown to
// the caller as is.
func (d *Dispatcher) Execute(ctx context.Context, caller Caller, input string) (*Reply, error) {
	line := parser.Normalize(input)
	if line == "" {
		return &Reply{}, nil
	}
	cmd, err := d.parser.ParseString("", line)
	if err != nil {
		return nil, parser.MapError(line, err)
	}
	if cmd.Admin() && !d.IsOwner(caller.ID) {
		d.log.Warn("admin command refused", zap.String("player", caller.ID), zap.String("input", line))
		return nil, errors.New("you do not have permission to use this command")
	}

	r, err := d.run(ctx, caller, cmd)
	if err != nil {
		return nil, d.userError(caller, line, err)
	}
	return r, nil
}

func (d *Dispatcher) userError(caller Caller, line string, err error) error {
	switch fault.KindOf(err) {
	case fault.Validation, fault.StateConflict, fault.Resource:
		return err
	case fault.Persistence:
		d.log.Error("command failed to persist", zap.String("player", caller.ID), zap.String("input", line), zap.Error(err))
		return errors.New("your progress could not be saved, please try again")
	}
	d.log.Error("command failed", zap.String("player", caller.ID), zap.String("input", line), zap.Error(err))
	return errors.New("something went wrong")
}

func (d *Dispatcher) target(caller Caller, mention string) (string, error) {
	if mention == "" {
		return caller.ID, nil
	}
	id, ok := d.dir.Resolve(mention)
	if !ok {
		return "", fault.Invalid("I don't know who %s is yet", mention)
	}
	return id, nil
}

func (d *Dispatcher) name(player string) string {
	return d.dir.Name(player)
}

func (d *Dispatcher) run(ctx context.Context, caller Caller, cmd *parser.Command) (*Reply, error) {
	e := d.engine
	switch {
	case cmd.Train != nil:
		res, err := e.Train(ctx, caller.ID, cmd.Train.Skill)
		if err != nil {
			return nil, err
		}
		return reply("💪 %s trained %s to level %d.", caller.Name, res.Skill, res.Level), nil

	case cmd.Patrol != nil:
		res, err := e.Patrol(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		return d.renderPatrol(caller, res), nil

	case cmd.Scavenge != nil:
		res, err := e.Scavenge(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		return reply("🔎 %s scavenged: %s.", caller.Name, formatCounts(res.Haul)), nil

	case cmd.Craft != nil:
		res, err := e.Craft(ctx, caller.ID, cmd.Craft.Item())
		if err != nil {
			return nil, err
		}
		if res.Bonus > 0 {
			return reply("🛠 %s crafted a %s (+%d combat).", caller.Name, res.Item, res.Bonus), nil
		}
		return reply("🛠 %s crafted a %s.", caller.Name, res.Item), nil

	case cmd.Use != nil:
		res, err := e.Use(ctx, caller.ID, cmd.Use.Item())
		if err != nil {
			return nil, err
		}
		return d.renderUse(caller, res), nil

	case cmd.Defend != nil:
		res, err := e.Defend(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		if !res.Joined {
			return reply("🛡 %s is already on the wall. %d defenders, %s left.", caller.Name, res.Defenders, roundDuration(res.Remaining)), nil
		}
		return reply("🛡 %s joins the defense! %d defenders, %s left.", caller.Name, res.Defenders, roundDuration(res.Remaining)), nil

	case cmd.Hit != nil:
		res, err := e.Hit(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		r := reply("⚔️ %s hits the boss for %d. %s", caller.Name, res.Damage, healthBar(res.HP, res.Capacity))
		if res.Outcome != nil {
			r.Messages = append(r.Messages, RenderOutcome(*res.Outcome, d.name))
		}
		return r, nil

	case cmd.Salute != nil:
		to, err := d.target(caller, cmd.Salute.Target)
		if err != nil {
			return nil, err
		}
		res, err := e.Salute(ctx, caller.ID, to)
		if err != nil {
			return nil, err
		}
		r := reply("🫡 %s salutes %s! +%d honor (now %d).", caller.Name, d.name(to), res.Honor, res.TotalHonor)
		d.addPromotion(r, to, res.Promotion)
		return r, nil

	case cmd.Honor != nil:
		p, err := d.target(caller, cmd.Honor.Target)
		if err != nil {
			return nil, err
		}
		return &Reply{Messages: []string{d.renderHonor(e.Honor(ctx, p))}}, nil

	case cmd.Stats != nil:
		p, err := d.target(caller, cmd.Stats.Target)
		if err != nil {
			return nil, err
		}
		return &Reply{Messages: []string{d.renderStats(e.Stats(ctx, p))}}, nil

	case cmd.Recipes != nil:
		return &Reply{Messages: []string{renderRecipes(e.Recipes())}}, nil

	case cmd.Top != nil:
		n := cmd.Top.N
		if n <= 0 || n > 25 {
			n = 10
		}
		return &Reply{Messages: []string{d.renderTop(e.Leaderboard(ctx, n))}}, nil

	case cmd.Events != nil:
		return &Reply{Messages: []string{renderEvents(e.EventStatus(), e.FeaturesEnabled())}}, nil

	case cmd.Ping != nil:
		return reply("Pong!"), nil

	case cmd.Help != nil:
		return &Reply{Messages: []string{renderHelp(cmd.Help.Topic, d.IsOwner(caller.ID))}}, nil

	case cmd.SetHonor != nil:
		p, err := d.target(caller, cmd.SetHonor.Target)
		if err != nil {
			return nil, err
		}
		v, err := e.SetHonor(ctx, p, cmd.SetHonor.Amount)
		if err != nil {
			return nil, err
		}
		return reply("✅ %s now has %d honor (%s).", d.name(p), v.Honor, v.Rank), nil

	case cmd.AddHonor != nil:
		p, err := d.target(caller, cmd.AddHonor.Target)
		if err != nil {
			return nil, err
		}
		v, err := e.AddHonor(ctx, p, cmd.AddHonor.Amount)
		if err != nil {
			return nil, err
		}
		return reply("✅ %s now has %d honor (%s).", d.name(p), v.Honor, v.Rank), nil

	case cmd.SetSkill != nil:
		p, err := d.target(caller, cmd.SetSkill.Target)
		if err != nil {
			return nil, err
		}
		res, err := e.SetSkill(ctx, p, cmd.SetSkill.Skill, cmd.SetSkill.Level)
		if err != nil {
			return nil, err
		}
		return reply("✅ %s's %s is now %d.", d.name(p), res.Skill, res.Level), nil

	case cmd.Force != nil:
		a, err := e.ForceEvent(ctx, cmd.Force.Class)
		if err != nil {
			return nil, err
		}
		return reply("✅ %s forced (%s).", a.Class, a.ID), nil

	case cmd.Games != nil:
		e.SetFeaturesEnabled(cmd.Games.On())
		if cmd.Games.On() {
			return reply("✅ Random events are on."), nil
		}
		return reply("✅ Random events are off. Running events will still finish."), nil

	case cmd.Grant != nil:
		p, err := d.target(caller, cmd.Grant.Target)
		if err != nil {
			return nil, err
		}
		v, err := e.Grant(ctx, p, cmd.Grant.Role())
		if err != nil {
			return nil, err
		}
		return reply("✅ %s is now %s with %d honor.", d.name(p), v.Rank, v.Honor), nil

	case cmd.Revoke != nil:
		p, err := d.target(caller, cmd.Revoke.Target)
		if err != nil {
			return nil, err
		}
		v, err := e.Revoke(ctx, p, cmd.Revoke.Role())
		if err != nil {
			return nil, err
		}
		return reply("✅ %s is now %s.", d.name(p), v.Rank), nil
	}
	return nil, fault.Invalid("unknown command")
}

func (d *Dispatcher) addPromotion(r *Reply, player, rank string) {
	if rank != "" {
		r.Messages = append(r.Messages, fmt.Sprintf("🎖 %s has been promoted to %s!", d.name(player), rank))
	}
}

// IdentityDirectory treats "@name" as the player id "name".
type IdentityDirectory struct{}

func (IdentityDirectory) Resolve(mention string) (string, bool) {
	id := strings.TrimPrefix(mention, "@")
	return id, id != ""
}

func (IdentityDirectory) Name(player string) string { return player }
