package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 1, r.Rank(0).PowerWeight)
	assert.Equal(t, []string{"Major", "Colonel", "General"}, r.PinnedRoles())

	medkit, ok := r.Recipe("medkit")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"Medical Supplies": 5, "Duct Tape": 2}, medkit.Materials)

	tier, ok := r.TierOfRole("Sergeant")
	require.True(t, ok)
	assert.Equal(t, Tier(3), tier)
}

func TestHighestTierIgnoresOrder(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	forward, ok := r.HighestTier([]string{"Private", "Major", "Corporal"})
	require.True(t, ok)
	backward, _ := r.HighestTier([]string{"Corporal", "Major", "Private"})
	assert.Equal(t, forward, backward)
	assert.Equal(t, "Major", r.Rank(forward).Name)

	_, ok = r.HighestTier([]string{"Moderators"})
	assert.False(t, ok)
}

func TestAcquirableTierFor(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	tests := []struct {
		honor int
		want  string
	}{
		{0, "Recruit"},
		{49, "Recruit"},
		{50, "Private"},
		{2999, "Lieutenant"},
		{100000, "Captain"}, // pinned tiers are never reached by honor
	}
	for _, tt := range tests {
		tier, ok := r.AcquirableTierFor(tt.honor)
		require.True(t, ok)
		assert.Equal(t, tt.want, r.Rank(tier).Name, "honor %d", tt.honor)
	}
}

func TestParseRejectsBrokenTables(t *testing.T) {
	base := string(DefaultYAML())

	t.Run("pinned before acquirable", func(t *testing.T) {
		raw := strings.Replace(base,
			"{ name: Captain,         honor_threshold: 3000,  power_weight: 7,  base_health: 190 }",
			"{ name: Captain,         honor_threshold: 3000,  power_weight: 7,  base_health: 190, pinned: true }", 1)
		raw = strings.Replace(raw,
			"{ name: Major,           honor_threshold: 5000,  power_weight: 8,  base_health: 210, pinned: true }",
			"{ name: Major,           honor_threshold: 5000,  power_weight: 8,  base_health: 210 }", 1)
		_, err := Parse([]byte(raw))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "follows a pinned rank")
	})

	t.Run("non increasing threshold", func(t *testing.T) {
		raw := strings.Replace(base, "honor_threshold: 150,", "honor_threshold: 40,", 1)
		_, err := Parse([]byte(raw))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must exceed")
	})

	t.Run("cooldown below floor", func(t *testing.T) {
		raw := strings.Replace(base, "minimum_seconds: 5", "minimum_seconds: 30", 1)
		_, err := Parse([]byte(raw))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cooldowns.actions.hit")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Parse([]byte(base + "\nbonus_mode: true\n"))
		assert.Error(t, err)
	})

	t.Run("bad formula", func(t *testing.T) {
		raw := strings.Replace(base, `"roll(3, 8) + skills.endurance / 10"`, `"'lots'"`, 1)
		_, err := Parse([]byte(raw))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "honor formula")
	})
}

func TestSchemaReflectsTypes(t *testing.T) {
	raw, err := Schema()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"honor_threshold"`)
	assert.Contains(t, string(raw), `"rarity_weights"`)
}

func TestEvaluator(t *testing.T) {
	ev, err := NewEvaluator(func(lo, hi int) int { return hi })
	require.NoError(t, err)

	n, err := ev.EvalInt("roll(3, 8) + skills.endurance / 10", FormulaContext{
		Skills: map[Skill]int{Endurance: 42},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = ev.EvalInt("honor + power", FormulaContext{Honor: 5, Power: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestParseSkill(t *testing.T) {
	sk, ok := ParseSkill(" Agility ")
	assert.True(t, ok)
	assert.Equal(t, Agility, sk)

	_, ok = ParseSkill("luck")
	assert.False(t, ok)
}
