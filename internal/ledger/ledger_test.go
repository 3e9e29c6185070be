package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// flakyStore wraps a file store and fails every Save while broken is set.
type flakyStore struct {
	persistence.Store
	broken bool
}

func (s *flakyStore) Save(ctx context.Context, table persistence.Table, key string, value any) error {
	if s.broken {
		return errors.New("disk unavailable")
	}
	return s.Store.Save(ctx, table, key, value)
}

func newLedger(t *testing.T) (*Ledger, *flakyStore) {
	t.Helper()
	fs, err := persistence.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := &flakyStore{Store: fs}
	l, err := Open(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	return l, store
}

func TestHonorNeverNegative(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	assert.Equal(t, 0, l.Honor("p1"))
	for _, delta := range []int{10, -3, -1000, 25, -1 << 30} {
		h, err := l.AdjustHonor(ctx, "p1", delta)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, h, 0)
		assert.Equal(t, h, l.Honor("p1"))
	}

	err := l.SetHonor(ctx, "p1", -5)
	assert.Equal(t, fault.Validation, fault.KindOf(err))
}

func TestAdjustHonorSaturates(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	h, err := l.AdjustHonor(ctx, "p1", math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, h)

	h, err = l.AdjustHonor(ctx, "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, h)
	assert.Equal(t, math.MaxInt, l.Honor("p1"))

	h, err = l.AdjustHonor(ctx, "p1", math.MinInt)
	require.NoError(t, err)
	assert.Zero(t, h)
}

func TestMutationsPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	_, err := l.AdjustHonor(ctx, "p1", 40)
	require.NoError(t, err)
	_, err = l.TrainSkill(ctx, "p1", rules.Strength)
	require.NoError(t, err)
	require.NoError(t, l.AddMaterials(ctx, "p1", map[string]int{"Cloth": 3}))

	reopened, err := Open(ctx, store, zap.NewNop())
	require.NoError(t, err)
	rec := reopened.Record("p1")
	assert.Equal(t, 40, rec.Honor)
	assert.Equal(t, 2, rec.Skills.Strength)
	assert.Equal(t, 3, rec.Inventory.Materials["Cloth"])
}

func TestFailedSaveDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)
	_, err := l.AdjustHonor(ctx, "p1", 10)
	require.NoError(t, err)

	store.broken = true
	_, err = l.AdjustHonor(ctx, "p1", 10)
	require.Error(t, err)
	assert.Equal(t, fault.Persistence, fault.KindOf(err))
	assert.Equal(t, 10, l.Honor("p1"))

	_, err = l.TrainSkill(ctx, "p1", rules.Agility)
	require.Error(t, err)
	assert.Equal(t, 1, l.Skills("p1").Agility)
}

func TestTrainSkillCap(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	require.NoError(t, l.SetSkill(ctx, "p1", rules.Endurance, 99))
	lvl, err := l.TrainSkill(ctx, "p1", rules.Endurance)
	require.NoError(t, err)
	assert.Equal(t, 100, lvl)

	_, err = l.TrainSkill(ctx, "p1", rules.Endurance)
	var capErr *AtCapError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, rules.Endurance, capErr.Skill)
	assert.Equal(t, 100, l.Skills("p1").Endurance)

	assert.Error(t, l.SetSkill(ctx, "p1", rules.Strength, 0))
	assert.Error(t, l.SetSkill(ctx, "p1", rules.Strength, 101))
}

func TestDebitMaterialsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	require.NoError(t, l.AddMaterials(ctx, "p1", map[string]int{"Scrap Metal": 4, "Duct Tape": 1}))
	before, _ := json.Marshal(l.Inventory("p1"))

	err := l.DebitMaterials(ctx, "p1", map[string]int{"Scrap Metal": 2, "Duct Tape": 3, "Gunpowder": 1})
	var short *InsufficientMaterialsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, map[string]int{"Duct Tape": 2, "Gunpowder": 1}, short.Shortfall)
	assert.Equal(t, "insufficient materials: need 2 more Duct Tape, 1 more Gunpowder", short.Error())

	after, _ := json.Marshal(l.Inventory("p1"))
	assert.Equal(t, string(before), string(after))

	require.NoError(t, l.DebitMaterials(ctx, "p1", map[string]int{"Scrap Metal": 4}))
	assert.Equal(t, 0, l.Inventory("p1").Materials["Scrap Metal"])
}

func TestCraftedItems(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	require.NoError(t, l.AddCraftedItem(ctx, "p1", "Medkit", 2))
	require.NoError(t, l.ConsumeCraftedItem(ctx, "p1", "Medkit", 1))

	err := l.ConsumeCraftedItem(ctx, "p1", "Medkit", 2)
	var itemErr *InsufficientItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 1, itemErr.Have)
	assert.Equal(t, 1, l.Inventory("p1").CraftedItems["Medkit"])
}

func TestRecordPatrolAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.RecordPatrol(ctx, "p1", true)
	require.NoError(t, err)
	stats, err := l.RecordPatrol(ctx, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, Stats{PatrolWins: 2, KillStreak: 2}, stats)
	stats, err = l.RecordPatrol(ctx, "p1", false)
	require.NoError(t, err)
	assert.Equal(t, Stats{PatrolWins: 2, KillStreak: 0}, stats)

	for p, h := range map[string]int{"a": 5, "b": 50, "c": 50} {
		require.NoError(t, l.SetHonor(ctx, p, h))
	}
	top := l.Leaderboard(2)
	assert.Equal(t, []Standing{{"b", 50}, {"c", 50}}, top)
}

func TestRaiseHonorTo(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	require.NoError(t, l.SetHonor(ctx, "p1", 200))

	h, changed, err := l.RaiseHonorTo(ctx, "p1", 150)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 200, h)

	h, changed, err = l.RaiseHonorTo(ctx, "p1", 5000)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 5000, h)
}
