package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFeatureSetsMatchMinTiers(t *testing.T) {
	// a plan must unlock exactly the features whose MinTier rank is
	// at or below the plan's own rank
	for _, tier := range TierOrder {
		plan, err := PlanFor(tier)
		require.NoError(t, err)
		for feat, info := range Features {
			want := info.MinTier.Rank() <= tier.Rank()
			assert.Equal(t, want, plan.HasFeature(feat), "tier=%s feature=%s", tier, feat)
		}
	}
}

func TestPlanFeatureSetsAreSupersets(t *testing.T) {
	for i := 1; i < len(TierOrder); i++ {
		lower, _ := PlanFor(TierOrder[i-1])
		higher, _ := PlanFor(TierOrder[i])
		for _, feat := range lower.Features {
			assert.True(t, higher.HasFeature(feat), "%s should include %s's %s", higher.Tier, lower.Tier, feat)
		}
	}
}

func TestPlanForInvalidTier(t *testing.T) {
	_, err := PlanFor(Tier("platinum"))
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestAllPlansOrdering(t *testing.T) {
	all := AllPlans()
	require.Len(t, all, len(TierOrder))
	for i, plan := range all {
		assert.Equal(t, TierOrder[i], plan.Tier)
	}
	// capability ceilings must not shrink as tiers go up
	assert.Equal(t, 5, all[0].DailyAIQueries)
	assert.Equal(t, Unlimited, all[len(all)-1].DailyAIQueries)
	assert.Equal(t, Unlimited, all[len(all)-1].MaxUsers)
}

func TestAllFeaturesCoversEveryFeature(t *testing.T) {
	all := AllFeatures()
	require.Len(t, all, len(Features))
	seen := make(map[Feature]bool, len(all))
	for _, info := range all {
		assert.True(t, info.Feature.Valid())
		seen[info.Feature] = true
	}
	assert.Len(t, seen, len(Features))
}

func TestFeatureValid(t *testing.T) {
	assert.True(t, FeatureHelpdesk.Valid())
	assert.False(t, Feature("time_travel").Valid())
}
