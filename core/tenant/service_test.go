package tenant_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/billing"
	"github.com/darasahq/darasa/core/tenant"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
	kvstore "github.com/darasahq/darasa/storage/kv"
)

var testConf = &core.Config{
	TestMode:    true,
	DefaultTier: "basic",
}

func setup(t *testing.T) tenant.Service {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	svc, err := tenant.NewService(dummydb.NewTenantRepository(db), kvstore.NewInMem(), testConf)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsInvalidDefaultTier(t *testing.T) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	_, err = tenant.NewService(dummydb.NewTenantRepository(db), kvstore.NewInMem(), &core.Config{DefaultTier: "platinum"})
	assert.Equal(t, billing.ErrInvalidTier, errors.Cause(err))
}

func TestCreateSeedsSubscription(t *testing.T) {
	svc := setup(t)

	tnt, err := svc.Create(tenant.NewTenant{Name: "Shule Academy", Slug: "shule-academy", Tier: billing.TierPro})
	require.NoError(t, err)

	eng, err := svc.Engine(tnt.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.TierPro, eng.Tier())
}

func TestEngineIsSharedPerTenant(t *testing.T) {
	svc := setup(t)

	tnt, err := svc.Create(tenant.NewTenant{Name: "Shule Academy", Slug: "shule-academy"})
	require.NoError(t, err)

	engA, err := svc.Engine(tnt.ID)
	require.NoError(t, err)
	engB, err := svc.Engine(tnt.ID)
	require.NoError(t, err)
	require.Same(t, engA, engB, "every caller must share one engine per tenant")

	// two engine handles, one concurrent increment burst per handle: the
	// shared mutex must cap the day's successes at the plan's ceiling.
	limit := billing.MustPlanFor(billing.TierBasic).DailyAIQueries
	var granted int64
	var wg sync.WaitGroup
	for _, eng := range []*billing.Engine{engA, engB} {
		for i := 0; i < limit; i++ {
			wg.Add(1)
			go func(eng *billing.Engine) {
				defer wg.Done()
				if eng.IncrementAIQuery() {
					atomic.AddInt64(&granted, 1)
				}
			}(eng)
		}
	}
	wg.Wait()

	assert.Equal(t, int64(limit), granted)
	assert.Equal(t, limit, engA.UsedQueries())
	assert.Equal(t, 0, engA.RemainingQueries())
}

func TestDeleteDropsCachedEngine(t *testing.T) {
	svc := setup(t)

	tnt, err := svc.Create(tenant.NewTenant{Name: "Shule Academy", Slug: "shule-academy"})
	require.NoError(t, err)

	engA, err := svc.Engine(tnt.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(tnt.ID))

	engB, err := svc.Engine(tnt.ID)
	require.NoError(t, err)
	assert.NotSame(t, engA, engB)
}
