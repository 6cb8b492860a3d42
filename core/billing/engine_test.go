package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kvstore "github.com/darasahq/darasa/storage/kv"
)

const testTenantID = "2f1e9c6e-5a4e-4a57-b7a4-2a1f6d9bb8aa"

func newTestEngine(t *testing.T, tier Tier) *Engine {
	t.Helper()
	eng, err := NewEngine(kvstore.NewInMem(), testTenantID, tier)
	require.NoError(t, err)
	return eng
}

func TestNewEngineRejectsInvalidDefaultTier(t *testing.T) {
	_, err := NewEngine(kvstore.NewInMem(), testTenantID, Tier("platinum"))
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestSetTier(t *testing.T) {
	eng := newTestEngine(t, TierBasic)

	assert.NoError(t, eng.SetTier(TierPro))
	assert.Equal(t, TierPro, eng.Tier())

	assert.ErrorIs(t, eng.SetTier(Tier("platinum")), ErrInvalidTier)
	assert.Equal(t, TierPro, eng.Tier(), "invalid tier must not mutate state")
}

func TestQuotaExhaustion(t *testing.T) {
	eng := newTestEngine(t, TierBasic)
	limit := eng.QueryLimit()
	require.Equal(t, 5, limit)

	for i := 0; i < limit; i++ {
		assert.True(t, eng.IncrementAIQuery(), "increment %d within limit", i+1)
	}
	assert.Equal(t, 0, eng.RemainingQueries())

	// rejection is idempotent: count stays at the limit
	assert.False(t, eng.IncrementAIQuery())
	assert.False(t, eng.IncrementAIQuery())
	assert.Equal(t, limit, eng.UsedQueries())
	assert.Equal(t, 0, eng.RemainingQueries())
}

func TestUnlimitedTier(t *testing.T) {
	eng := newTestEngine(t, TierMax)

	assert.Equal(t, Unlimited, eng.QueryLimit())
	for i := 0; i < 1000; i++ {
		assert.True(t, eng.IncrementAIQuery())
	}
	assert.Equal(t, Unlimited, eng.RemainingQueries())
	assert.Equal(t, 1000, eng.UsedQueries())
}

func TestUpgradeKeepsCountButLiftsCeiling(t *testing.T) {
	eng := newTestEngine(t, TierBasic)

	for i := 0; i < 5; i++ {
		require.True(t, eng.IncrementAIQuery())
	}
	require.False(t, eng.IncrementAIQuery())
	require.Equal(t, 0, eng.RemainingQueries())

	require.NoError(t, eng.SetTier(TierMax))
	assert.Equal(t, Unlimited, eng.RemainingQueries())
	assert.Equal(t, 5, eng.UsedQueries(), "upgrade must not reset the count")
	assert.True(t, eng.IncrementAIQuery())
}

func TestDayRollover(t *testing.T) {
	eng := newTestEngine(t, TierBasic)

	yesterday := time.Now().Add(-24 * time.Hour)
	nowFunc = func() time.Time { return yesterday }
	defer func() { nowFunc = time.Now }()
	for i := 0; i < 3; i++ {
		require.True(t, eng.IncrementAIQuery())
	}
	require.Equal(t, 3, eng.UsedQueries())

	nowFunc = time.Now // reset
	assert.Equal(t, 0, eng.UsedQueries(), "stale count must never be observed")
	assert.Equal(t, 5, eng.RemainingQueries())
	assert.True(t, eng.IncrementAIQuery())
	assert.Equal(t, 1, eng.UsedQueries())
}

func TestResetDailyQueries(t *testing.T) {
	eng := newTestEngine(t, TierBasic)

	for i := 0; i < 4; i++ {
		require.True(t, eng.IncrementAIQuery())
	}
	eng.ResetDailyQueries()
	assert.Equal(t, 0, eng.UsedQueries())
	assert.Equal(t, 5, eng.RemainingQueries())
}

func TestSnapshotRoundTrip(t *testing.T) {
	kv := kvstore.NewInMem()

	eng, err := NewEngine(kv, testTenantID, TierBasic)
	require.NoError(t, err)
	require.NoError(t, eng.SetTier(TierPro))
	require.True(t, eng.IncrementAIQuery())
	require.True(t, eng.IncrementAIQuery())

	restored, err := NewEngine(kv, testTenantID, TierBasic)
	require.NoError(t, err)
	assert.Equal(t, TierPro, restored.Tier())
	assert.Equal(t, 2, restored.UsedQueries())
	for _, info := range AllFeatures() {
		assert.Equal(t, eng.HasFeature(info.Feature), restored.HasFeature(info.Feature), info.Feature)
	}
}

func TestCorruptSnapshotFallsBackToDefaults(t *testing.T) {
	kv := kvstore.NewInMem()
	_ = kv.Set(context.Background(), storageKeyPrefix+testTenantID, "{not json")

	eng, err := NewEngine(kv, testTenantID, TierBasic)
	require.NoError(t, err)
	assert.Equal(t, TierBasic, eng.Tier())
	assert.Equal(t, 0, eng.UsedQueries())
}

func TestEnginesAreTenantScoped(t *testing.T) {
	kv := kvstore.NewInMem()

	engA, err := NewEngine(kv, "tenant-a", TierBasic)
	require.NoError(t, err)
	engB, err := NewEngine(kv, "tenant-b", TierBasic)
	require.NoError(t, err)

	require.True(t, engA.IncrementAIQuery())
	assert.Equal(t, 1, engA.UsedQueries())
	assert.Equal(t, 0, engB.UsedQueries())
}
