package crafting

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/combat"
	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ledger"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

func newEconomy(t *testing.T, rnd combat.Rand) (*Economy, *ledger.Ledger) {
	t.Helper()
	r, err := rules.Default()
	require.NoError(t, err)
	store, err := persistence.NewFileStore(t.TempDir())
	require.NoError(t, err)
	l, err := ledger.Open(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	e, err := New(r, l, rnd, zap.NewNop())
	require.NoError(t, err)
	return e, l
}

func TestCraftMedkitUsesExactMaterials(t *testing.T) {
	e, l := newEconomy(t, combat.NewScripted())
	ctx := context.Background()
	require.NoError(t, l.AddMaterials(ctx, "p1", map[string]int{"Medical Supplies": 5, "Duct Tape": 2}))

	rc, err := e.Craft(ctx, "p1", "medkit")
	require.NoError(t, err)
	assert.Equal(t, "Medkit", rc.Name)

	inv := l.Inventory("p1")
	assert.Equal(t, 0, inv.Materials["Medical Supplies"])
	assert.Equal(t, 0, inv.Materials["Duct Tape"])
	assert.Equal(t, 1, inv.CraftedItems["Medkit"])
}

func TestCraftShortfallLeavesInventoryUntouched(t *testing.T) {
	e, l := newEconomy(t, combat.NewScripted())
	ctx := context.Background()
	require.NoError(t, l.AddMaterials(ctx, "p1", map[string]int{"Medical Supplies": 3, "Duct Tape": 2}))
	before, _ := json.Marshal(l.Inventory("p1"))

	_, err := e.Craft(ctx, "p1", "Medkit")
	var short *ledger.InsufficientMaterialsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, map[string]int{"Medical Supplies": 2}, short.Shortfall)
	assert.Equal(t, fault.Resource, fault.KindOf(err))

	after, _ := json.Marshal(l.Inventory("p1"))
	assert.Equal(t, string(before), string(after))
}

func TestCraftChecksSkillBeforeMaterials(t *testing.T) {
	e, l := newEconomy(t, combat.NewScripted())
	ctx := context.Background()

	_, err := e.Craft(ctx, "p1", "Railgun")
	var low *SkillTooLowError
	require.ErrorAs(t, err, &low)
	assert.Equal(t, rules.Intelligence, low.Skill)
	assert.Equal(t, 1, low.Have)

	require.NoError(t, l.SetSkill(ctx, "p1", rules.Intelligence, 30))
	_, err = e.Craft(ctx, "p1", "Railgun")
	var short *ledger.InsufficientMaterialsError
	assert.ErrorAs(t, err, &short)
}

func TestCraftUnknownRecipe(t *testing.T) {
	e, _ := newEconomy(t, combat.NewScripted())
	_, err := e.Craft(context.Background(), "p1", "Death Star")
	assert.Equal(t, fault.Validation, fault.KindOf(err))
}

func TestScavengeWeightedDraws(t *testing.T) {
	// weights: 3x common 60, 2x uncommon 25, rare 12, legendary 3 = 245
	rnd := combat.NewScripted(0, 179, 180, 244)
	e, l := newEconomy(t, rnd)
	ctx := context.Background()
	require.NoError(t, l.SetSkill(ctx, "p1", rules.Intelligence, 60))
	assert.Equal(t, 4, e.Draws(60))

	haul, err := e.Scavenge(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"Scrap Metal":      1,
		"Cloth":            1,
		"Medical Supplies": 1,
		"Titanium Plate":   1,
	}, haul)
	assert.Equal(t, haul, l.Inventory("p1").Materials)
}

func TestScavengeDefaultSkillsDrawOnce(t *testing.T) {
	e, l := newEconomy(t, combat.NewRand(7))
	haul, err := e.Scavenge(context.Background(), "p1")
	require.NoError(t, err)

	total := 0
	for _, n := range haul {
		total += n
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, haul, l.Inventory("p1").Materials)
}

func TestUseRationPackAddsHonor(t *testing.T) {
	e, l := newEconomy(t, combat.NewScripted(5))
	ctx := context.Background()
	require.NoError(t, l.SetSkill(ctx, "p1", rules.Endurance, 20))
	require.NoError(t, l.AddCraftedItem(ctx, "p1", "Ration Pack", 1))

	// roll(3, 8) draws 3+5, endurance 20 adds 2
	res, err := e.Use(ctx, "p1", "ration pack", 1)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Honor)
	assert.Equal(t, 10, l.Honor("p1"))
	assert.Zero(t, l.Inventory("p1").CraftedItems["Ration Pack"])

	_, err = e.Use(ctx, "p1", "Ration Pack", 1)
	var none *ledger.InsufficientItemError
	assert.ErrorAs(t, err, &none)
	assert.Equal(t, 10, l.Honor("p1"))
}

func TestUseMedkitResetsCooldown(t *testing.T) {
	e, l := newEconomy(t, combat.NewScripted())
	ctx := context.Background()
	require.NoError(t, l.AddCraftedItem(ctx, "p1", "Medkit", 2))

	res, err := e.Use(ctx, "p1", "Medkit", 1)
	require.NoError(t, err)
	assert.Equal(t, "patrol", res.ResetCooldown)
	assert.Zero(t, res.Honor)
	assert.Equal(t, 1, l.Inventory("p1").CraftedItems["Medkit"])
}

func TestUseRejectsWeapons(t *testing.T) {
	e, l := newEconomy(t, combat.NewScripted())
	ctx := context.Background()
	require.NoError(t, l.AddCraftedItem(ctx, "p1", "Rifle", 1))

	_, err := e.Use(ctx, "p1", "Rifle", 1)
	assert.Equal(t, fault.Validation, fault.KindOf(err))
	assert.Equal(t, 1, l.Inventory("p1").CraftedItems["Rifle"])
}
