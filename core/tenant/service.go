package tenant

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/billing"
)

var (
	// errors
	ErrNotFound   = errors.New("tenant not found")
	ErrSlugExists = errors.New("a tenant with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(slug string, excludedTenants ...Tenant) error
		CreateTenant(tnt Tenant) (Tenant, error)
		QueryAllTenants() ([]Tenant, error)
		GetTenantByID(id string) (Tenant, error)
		GetTenantBySlug(slug string) (Tenant, error)
		UpdateTenant(tnt Tenant, isActive *bool) (Tenant, error)
		DeleteTenantsByID(ids ...string) error
	}

	Service interface {
		CheckSlugUniqueness(slug string, exclTenants ...Tenant) error
		Create(nt NewTenant) (Tenant, error)
		QueryAll() ([]Tenant, error)
		GetByID(id string) (Tenant, error)
		GetBySlug(slug string) (Tenant, error)
		Update(id string, ut UpdateTenant) (Tenant, error)
		Delete(ids ...string) error
		// SetTier records the tenant's new tier and switches the
		// tenant's quota engine to it.
		SetTier(id string, tier billing.Tier) (Tenant, error)
		// Engine returns the subscription & quota engine for the tenant.
		// All callers get the same instance, so the engine's mutex
		// serializes quota checks across concurrent requests.
		Engine(id string) (*billing.Engine, error)
	}

	service struct {
		repo Repository
		kv   core.KVStore
		conf *core.Config

		// one long-lived engine per tenant; its internal mutex only
		// serializes callers that share the instance, so every caller
		// must go through this cache.
		mu      sync.Mutex
		engines map[string]*billing.Engine
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, kv core.KVStore, conf *core.Config) (Service, error) {
	if !billing.Tier(conf.DefaultTier).Valid() {
		return nil, errors.Wrapf(billing.ErrInvalidTier, "default tier %q", conf.DefaultTier)
	}
	return &service{
		repo:    repo,
		kv:      kv,
		conf:    conf,
		engines: make(map[string]*billing.Engine),
	}, nil
}

func (svc *service) CheckSlugUniqueness(slug string, exclTenants ...Tenant) error {
	if err := svc.repo.CheckSlugUniqueness(slug, exclTenants...); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(nt NewTenant) (Tenant, error) {
	tier := nt.Tier
	if tier == "" {
		tier = billing.Tier(svc.conf.DefaultTier)
	}
	if !tier.Valid() {
		return Tenant{}, billing.ErrInvalidTier
	}

	now := time.Now().UTC()
	tnt := Tenant{
		ID:        uuid.New().String(),
		Name:      nt.Name,
		Slug:      nt.Slug,
		IsActive:  boolPtr(true),
		Tier:      tier,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tnt, err := svc.repo.CreateTenant(tnt)
	if err != nil {
		return Tenant{}, err
	}

	// seed the tenant's subscription snapshot
	eng, err := svc.Engine(tnt.ID)
	if err != nil {
		return Tenant{}, err
	}
	if err = eng.SetTier(tier); err != nil {
		return Tenant{}, err
	}
	return tnt, nil
}

func (svc *service) QueryAll() ([]Tenant, error) {
	return svc.repo.QueryAllTenants()
}

func (svc *service) GetByID(id string) (Tenant, error) {
	return svc.repo.GetTenantByID(id)
}

func (svc *service) GetBySlug(slug string) (Tenant, error) {
	return svc.repo.GetTenantBySlug(core.CleanString(slug, true /* lower */))
}

func (svc *service) Update(id string, ut UpdateTenant) (Tenant, error) {
	tnt := Tenant{
		ID:        id,
		Name:      ut.Name,
		Slug:      ut.Slug,
		UpdatedAt: time.Now().UTC(),
	}
	tnt, err := svc.repo.UpdateTenant(tnt, ut.IsActive)
	if err != nil {
		return Tenant{}, err
	}
	if ut.Tier != "" && ut.Tier != tnt.Tier {
		return svc.SetTier(id, ut.Tier)
	}
	return tnt, nil
}

func (svc *service) Delete(ids ...string) error {
	if err := svc.repo.DeleteTenantsByID(ids...); err != nil {
		return err
	}
	svc.mu.Lock()
	for _, id := range ids {
		delete(svc.engines, id)
	}
	svc.mu.Unlock()
	return nil
}

func (svc *service) SetTier(id string, tier billing.Tier) (Tenant, error) {
	if !tier.Valid() {
		return Tenant{}, billing.ErrInvalidTier
	}
	tnt, err := svc.repo.GetTenantByID(id)
	if err != nil {
		return Tenant{}, err
	}

	eng, err := svc.Engine(tnt.ID)
	if err != nil {
		return Tenant{}, err
	}
	if err = eng.SetTier(tier); err != nil {
		return Tenant{}, err
	}

	tnt.Tier = tier
	tnt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTenant(tnt, nil)
}

func (svc *service) Engine(id string) (*billing.Engine, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if eng, ok := svc.engines[id]; ok {
		return eng, nil
	}
	eng, err := billing.NewEngine(svc.kv, id, billing.Tier(svc.conf.DefaultTier))
	if err != nil {
		return nil, err
	}
	svc.engines[id] = eng
	return eng, nil
}

func boolPtr(b bool) *bool { return &b }
