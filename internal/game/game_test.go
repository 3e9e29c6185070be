package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/cooldown"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ledger"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

type testEngine struct {
	*Engine
	now *time.Time
	rnd *combat.Scripted
}

func (te *testEngine) advance(d time.Duration) { *te.now = te.now.Add(d) }

func newEngine(t *testing.T, rnd *combat.Scripted) *testEngine {
	t.Helper()
	r, err := rules.Default()
	require.NoError(t, err)
	store, err := persistence.NewFileStore(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	e, err := New(context.Background(), Deps{
		Rules: r,
		Store: store,
		Rand:  rnd,
		Now:   func() time.Time { return now },
		Log:   zap.NewNop(),
	})
	require.NoError(t, err)
	return &testEngine{Engine: e, now: &now, rnd: rnd}
}

func TestPatrolUneventful(t *testing.T) {
	// 0.9 misses the encounter roll, 3 lands on 5+3
	te := newEngine(t, combat.NewScripted(3).Floats(0.9))
	ctx := context.Background()

	res, err := te.Patrol(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, res.Encounter)
	assert.Equal(t, 8, res.Honor)
	assert.GreaterOrEqual(t, te.ledger.Honor("p1"), 5)
	assert.LessOrEqual(t, te.ledger.Honor("p1"), 10)
	assert.Equal(t, ledger.Stats{}, res.Stats)
	assert.Equal(t, event.Idle, te.events.Status(event.ClassAttack).State)
}

func TestPatrolCooldownShrinksWithEndurance(t *testing.T) {
	te := newEngine(t, combat.NewScripted().Floats(0.9, 0.9, 0.9))
	ctx := context.Background()

	_, err := te.Patrol(ctx, "p1")
	require.NoError(t, err)
	_, err = te.Patrol(ctx, "p1")
	var active *cooldown.ActiveError
	require.ErrorAs(t, err, &active)
	// 900s base minus 6s for endurance 1
	assert.Equal(t, 894*time.Second, active.Remaining)

	te.advance(894 * time.Second)
	_, err = te.Patrol(ctx, "p1")
	assert.NoError(t, err)
}

func TestPatrolEncounterWinAndLoss(t *testing.T) {
	// encounter (0.1), win roll 0.2 < 0.35, victory honor 15+0;
	// then encounter (0.1), loss roll 0.9
	te := newEngine(t, combat.NewScripted(0).Floats(0.1, 0.2, 0.1, 0.9))
	ctx := context.Background()

	res, err := te.Patrol(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, res.Encounter)
	assert.Equal(t, combat.Win, res.Outcome)
	assert.Equal(t, 15, res.Honor)
	assert.Equal(t, ledger.Stats{PatrolWins: 1, KillStreak: 1}, res.Stats)
	assert.Equal(t, "Recruit", res.Promotion)

	te.advance(time.Hour)
	res, err = te.Patrol(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, combat.Loss, res.Outcome)
	assert.Zero(t, res.Honor)
	assert.Equal(t, 15, res.TotalHonor)
	assert.Equal(t, ledger.Stats{PatrolWins: 1, KillStreak: 0}, res.Stats)
}

func TestTrainSurfacesCap(t *testing.T) {
	te := newEngine(t, combat.NewScripted())
	ctx := context.Background()

	_, err := te.Train(ctx, "p1", "wisdom")
	assert.Equal(t, fault.Validation, fault.KindOf(err))

	res, err := te.Train(ctx, "p1", "Strength")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Level)

	_, err = te.SetSkill(ctx, "p1", "agility", 100)
	require.NoError(t, err)
	_, err = te.Train(ctx, "p1", "agility")
	var capped *ledger.AtCapError
	require.ErrorAs(t, err, &capped)
	assert.Contains(t, err.Error(), "already maxed")
}

func TestCraftAndUseMedkitResetsPatrol(t *testing.T) {
	te := newEngine(t, combat.NewScripted().Floats(0.9))
	ctx := context.Background()
	require.NoError(t, te.ledger.AddMaterials(ctx, "p1", map[string]int{"Medical Supplies": 5, "Duct Tape": 2}))

	res, err := te.Craft(ctx, "p1", "Medkit")
	require.NoError(t, err)
	assert.Equal(t, "Medkit", res.Item)
	inv := te.ledger.Inventory("p1")
	assert.Equal(t, 0, inv.Materials["Medical Supplies"])
	assert.Equal(t, 0, inv.Materials["Duct Tape"])
	assert.Equal(t, 1, inv.CraftedItems["Medkit"])

	_, err = te.Patrol(ctx, "p1")
	require.NoError(t, err)
	assert.Error(t, te.consume("p1", ActionPatrol))

	used, err := te.Use(ctx, "p1", "medkit")
	require.NoError(t, err)
	assert.Equal(t, ActionPatrol, used.ResetCooldown)
	assert.NoError(t, te.consume("p1", ActionPatrol))

	// nothing left; the use cooldown must not be spent on a failed use
	_, err = te.Use(ctx, "p1", "Medkit")
	assert.Equal(t, fault.Resource, fault.KindOf(err))
}

func TestSalute(t *testing.T) {
	te := newEngine(t, combat.NewScripted(10))
	ctx := context.Background()

	_, err := te.Salute(ctx, "p1", "p1")
	assert.Equal(t, fault.Validation, fault.KindOf(err))

	res, err := te.Salute(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.Equal(t, 15, res.Honor)
	assert.Equal(t, 15, te.ledger.Honor("p2"))
	assert.Zero(t, te.ledger.Honor("p1"))

	_, err = te.Salute(ctx, "p1", "p3")
	assert.Equal(t, fault.StateConflict, fault.KindOf(err))
	te.advance(5 * time.Minute)
	_, err = te.Salute(ctx, "p1", "p3")
	assert.NoError(t, err)
}

func TestAdminHonorReconcilesRank(t *testing.T) {
	te := newEngine(t, combat.NewScripted())
	ctx := context.Background()

	v, err := te.SetHonor(ctx, "p1", 450)
	require.NoError(t, err)
	assert.Equal(t, "Sergeant", v.Rank)
	assert.Equal(t, "Staff Sergeant", v.NextRank)
	assert.Equal(t, 800, v.NextHonor)

	v, err = te.AddHonor(ctx, "p1", -1000)
	require.NoError(t, err)
	assert.Zero(t, v.Honor)
	assert.Equal(t, "Recruit", v.Rank)

	_, err = te.SetHonor(ctx, "p1", -5)
	assert.Equal(t, fault.Validation, fault.KindOf(err))
}

func TestRaiseHonorNeverLowers(t *testing.T) {
	te := newEngine(t, combat.NewScripted())
	ctx := context.Background()

	_, err := te.SetHonor(ctx, "p1", 500)
	require.NoError(t, err)

	v, raised, err := te.RaiseHonor(ctx, "p1", 200)
	require.NoError(t, err)
	assert.False(t, raised)
	assert.Equal(t, 500, v.Honor)

	v, raised, err = te.RaiseHonor(ctx, "p2", 450)
	require.NoError(t, err)
	assert.True(t, raised)
	assert.Equal(t, "Sergeant", v.Rank)
}

func TestGrantPinnedRankRaisesHonor(t *testing.T) {
	te := newEngine(t, combat.NewScripted())
	ctx := context.Background()

	v, err := te.Grant(ctx, "p1", "Colonel")
	require.NoError(t, err)
	assert.Equal(t, 8000, v.Honor)
	assert.Equal(t, "Colonel", v.Rank)
	assert.True(t, v.Pinned)

	// no demotion while pinned
	v, err = te.SetHonor(ctx, "p1", 10)
	require.NoError(t, err)
	assert.Equal(t, "Colonel", v.Rank)

	v, err = te.Revoke(ctx, "p1", "Colonel")
	require.NoError(t, err)
	assert.Equal(t, "Recruit", v.Rank)
}

func TestForceEventAndHit(t *testing.T) {
	te := newEngine(t, combat.NewScripted())
	ctx := context.Background()

	_, err := te.Hit(ctx, "p1")
	assert.Equal(t, fault.StateConflict, fault.KindOf(err))

	_, err = te.ForceEvent(ctx, "dragon")
	assert.Equal(t, fault.Validation, fault.KindOf(err))

	_, err = te.ForceEvent(ctx, "boss")
	require.NoError(t, err)

	// roll 5 + weight 1 + no weapon + strength 1
	res, err := te.Hit(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, res.Damage)
	assert.Equal(t, 993, res.HP)

	_, err = te.Hit(ctx, "p1")
	assert.Equal(t, fault.StateConflict, fault.KindOf(err))
}

func TestHitCooldownFollowsRules(t *testing.T) {
	te := newEngine(t, combat.NewScripted())
	ctx := context.Background()

	_, err := te.ForceEvent(ctx, "boss")
	require.NoError(t, err)
	_, err = te.Hit(ctx, "p1")
	require.NoError(t, err)

	te.advance(4 * time.Second)
	_, err = te.Hit(ctx, "p1")
	var active *cooldown.ActiveError
	require.ErrorAs(t, err, &active)
	assert.Equal(t, time.Second, active.Remaining)

	te.advance(time.Second)
	_, err = te.Hit(ctx, "p1")
	assert.NoError(t, err)
}

// interruptingAuthority runs onRead the first time a player's roles are read.
type interruptingAuthority struct {
	onRead func()
}

func (a *interruptingAuthority) Roles(context.Context, string) ([]string, error) {
	if f := a.onRead; f != nil {
		a.onRead = nil
		f()
	}
	return nil, nil
}

func (a *interruptingAuthority) SetRoles(context.Context, string, []string) error { return nil }
func (a *interruptingAuthority) RoleExists(context.Context, string) (bool, error) { return true, nil }

func TestHitRefundsCooldownWhenBossFallsFirst(t *testing.T) {
	r, err := rules.Default()
	require.NoError(t, err)
	store, err := persistence.NewFileStore(t.TempDir())
	require.NoError(t, err)
	now := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	auth := &interruptingAuthority{}
	e, err := New(context.Background(), Deps{
		Rules:     r,
		Store:     store,
		Authority: auth,
		Rand:      combat.NewScripted(),
		Now:       func() time.Time { return now },
		Log:       zap.NewNop(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.ForceEvent(ctx, "boss")
	require.NoError(t, err)

	// Another player finishes the boss while p1's strike is being rolled.
	auth.onRead = func() {
		res, err := e.events.Strike(ctx, "p2", 5000)
		require.NoError(t, err)
		require.NotNil(t, res.Outcome)
	}
	_, err = e.Hit(ctx, "p1")
	var gone *event.NoActiveEventError
	require.ErrorAs(t, err, &gone)

	_, err = e.ForceEvent(ctx, "boss")
	require.NoError(t, err)
	_, err = e.Hit(ctx, "p1")
	assert.NoError(t, err)
}

func TestDefendAndStats(t *testing.T) {
	te := newEngine(t, combat.NewScripted())
	ctx := context.Background()

	_, err := te.Defend(ctx, "p1")
	assert.Error(t, err)
	_, err = te.ForceEvent(ctx, "attack")
	require.NoError(t, err)
	res, err := te.Defend(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, res.Joined)

	require.NoError(t, te.ledger.AddCraftedItem(ctx, "p1", "Combat Knife", 1))
	st := te.Stats(ctx, "p1")
	assert.Equal(t, 1, st.Power)
	assert.Equal(t, 2, st.WeaponBonus)
	assert.Equal(t, "Recruit", st.Rank)
	assert.Empty(t, st.Cooldowns)
}

func TestLeaderboard(t *testing.T) {
	te := newEngine(t, combat.NewScripted())
	ctx := context.Background()
	for p, h := range map[string]int{"a": 10, "b": 500, "c": 60} {
		_, err := te.SetHonor(ctx, p, h)
		require.NoError(t, err)
	}

	top := te.Leaderboard(ctx, 2)
	require.Len(t, top, 2)
	assert.Equal(t, Standing{Place: 1, Player: "b", Honor: 500, Rank: "Sergeant"}, top[0])
	assert.Equal(t, Standing{Place: 2, Player: "c", Honor: 60, Rank: "Private"}, top[1])
}
