package ranks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/fault"
	"github.com/AustinNewburry/DavisDefenseBot/internal/ledger"
	"github.com/AustinNewburry/DavisDefenseBot/internal/persistence"
	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// countingAuthority wraps a Registry and counts role writes.
type countingAuthority struct {
	*Registry
	writes int
	reject bool
}

func (a *countingAuthority) SetRoles(ctx context.Context, player string, roles []string) error {
	if a.reject {
		return &fault.ExternalAuthorityError{Player: player, Reason: "missing permissions"}
	}
	a.writes++
	return a.Registry.SetRoles(ctx, player, roles)
}

type fixture struct {
	rules  *rules.Rules
	ledger *ledger.Ledger
	reg    *Registry
	auth   *countingAuthority
	sync   *Synchronizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	r, err := rules.Default()
	require.NoError(t, err)
	store, err := persistence.NewFileStore(t.TempDir())
	require.NoError(t, err)
	l, err := ledger.Open(ctx, store, zap.NewNop())
	require.NoError(t, err)

	known := append(r.AcquirableRoles(), r.PinnedRoles()...)
	known = append(known, "Medic")
	reg, err := OpenRegistry(ctx, store, known, zap.NewNop())
	require.NoError(t, err)

	auth := &countingAuthority{Registry: reg}
	return &fixture{rules: r, ledger: l, reg: reg, auth: auth, sync: NewSynchronizer(r, auth, l, zap.NewNop())}
}

func TestReconcilePromotesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.reg.SetRoles(ctx, "p1", []string{"Medic", "Recruit"}))
	require.NoError(t, f.ledger.SetHonor(ctx, "p1", 160))

	ch := f.sync.Reconcile(ctx, "p1")
	assert.True(t, ch.Changed)
	assert.Equal(t, "Recruit", ch.From)
	assert.Equal(t, "Corporal", ch.To)

	roles, _ := f.reg.Roles(ctx, "p1")
	assert.ElementsMatch(t, []string{"Medic", "Corporal"}, roles)
	assert.Equal(t, 1, f.auth.writes)

	ch = f.sync.Reconcile(ctx, "p1")
	assert.False(t, ch.Changed)
	assert.Equal(t, 1, f.auth.writes)
	again, _ := f.reg.Roles(ctx, "p1")
	assert.Equal(t, roles, again)
}

func TestReconcileDropsStaleAcquirableRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.reg.SetRoles(ctx, "p1", []string{"Captain", "Private", "Sergeant"}))
	require.NoError(t, f.ledger.SetHonor(ctx, "p1", 400))

	ch := f.sync.Reconcile(ctx, "p1")
	assert.True(t, ch.Changed)
	assert.Equal(t, "Captain", ch.From)
	roles, _ := f.reg.Roles(ctx, "p1")
	assert.Equal(t, []string{"Sergeant"}, roles)
}

func TestReconcileLeavesPinnedRanksAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.reg.SetRoles(ctx, "p1", []string{"Major"}))
	require.NoError(t, f.ledger.SetHonor(ctx, "p1", 0))

	ch := f.sync.Reconcile(ctx, "p1")
	assert.False(t, ch.Changed)
	assert.Zero(t, f.auth.writes)
	roles, _ := f.reg.Roles(ctx, "p1")
	assert.Equal(t, []string{"Major"}, roles)
}

func TestReconcileSwallowsAuthorityRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.auth.reject = true
	require.NoError(t, f.ledger.SetHonor(ctx, "p1", 60))

	ch := f.sync.Reconcile(ctx, "p1")
	assert.False(t, ch.Changed)
	roles, _ := f.reg.Roles(ctx, "p1")
	assert.Empty(t, roles)
}

func TestAdoptExternalPinnedBaseline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.SetHonor(ctx, "p1", 20))

	_, err := f.sync.AdoptExternalPinnedBaseline(ctx, "p1", []string{"Recruit", "Lieutenant"})
	require.NoError(t, err)
	assert.Equal(t, 1500, f.ledger.Honor("p1"))

	// never lowers honor
	require.NoError(t, f.ledger.SetHonor(ctx, "p1", 9000))
	_, err = f.sync.AdoptExternalPinnedBaseline(ctx, "p1", []string{"Major"})
	require.NoError(t, err)
	assert.Equal(t, 9000, f.ledger.Honor("p1"))
}

func TestRegistryGrantNotifiesAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var seen [][]string
	f.reg.OnChange(func(_ context.Context, player string, roles []string) {
		assert.Equal(t, "p1", player)
		seen = append(seen, roles)
	})

	require.NoError(t, f.reg.Grant(ctx, "p1", "Colonel"))
	require.NoError(t, f.reg.Grant(ctx, "p1", "Colonel"))
	require.NoError(t, f.reg.Revoke(ctx, "p1", "Colonel"))
	require.Len(t, seen, 2)
	assert.Equal(t, []string{"Colonel"}, seen[0])
	assert.Empty(t, seen[1])

	err := f.reg.Grant(ctx, "p1", "Admiral")
	assert.Equal(t, fault.Validation, fault.KindOf(err))

	err = f.reg.SetRoles(ctx, "p1", []string{"Admiral"})
	var ext *fault.ExternalAuthorityError
	assert.True(t, errors.As(err, &ext))
}

func TestGrantWiredToBaseline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.reg.OnChange(func(ctx context.Context, player string, roles []string) {
		_, err := f.sync.AdoptExternalPinnedBaseline(ctx, player, roles)
		assert.NoError(t, err)
	})

	require.NoError(t, f.reg.Grant(ctx, "p1", "General"))
	assert.Equal(t, 12000, f.ledger.Honor("p1"))
	assert.Equal(t, rules.Tier(len(f.rules.Ranks)-1), f.sync.Tier(ctx, "p1"))
}
