package dummydb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/tenant"
)

type tenantRepository struct {
	db *tenantTable
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *DB) tenant.Repository {
	return &tenantRepository{db: db.tenant}
}

func (repo *tenantRepository) query() []tenant.Tenant {
	tenants := make([]tenant.Tenant, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		tenants = append(tenants, *t)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].CreatedAt.Before(tenants[j].CreatedAt) })
	return tenants
}

func (repo *tenantRepository) CheckSlugUniqueness(slug string, excludedTenants ...tenant.Tenant) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedTenants))
	for _, tnt := range excludedTenants {
		excluded[tnt.ID] = struct{}{}
	}

	for _, tnt := range repo.query() {
		if _, ok := excluded[tnt.ID]; ok {
			continue
		}
		if tnt.Slug == slug {
			return tenant.ErrSlugExists
		}
	}
	return nil
}

func (repo *tenantRepository) CreateTenant(tnt tenant.Tenant) (tenant.Tenant, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if tnt.ID == "" {
		tnt.ID = uuid.New().String()
	}
	repo.db.table[tnt.ID] = &tnt
	return tnt, nil
}

func (repo *tenantRepository) QueryAllTenants() ([]tenant.Tenant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *tenantRepository) GetTenantByID(id string) (tenant.Tenant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tnt, ok := repo.db.table[id]; ok {
		return *tnt, nil
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) GetTenantBySlug(slug string) (tenant.Tenant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, tnt := range repo.query() {
		if tnt.Slug == slug {
			return tnt, nil
		}
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) UpdateTenant(tnt tenant.Tenant, isActive *bool) (tenant.Tenant, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origTnt, ok := repo.db.table[tnt.ID]
	if !ok {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	if tnt.Name != "" {
		origTnt.Name = tnt.Name
	}
	if tnt.Slug != "" {
		origTnt.Slug = tnt.Slug
	}
	if tnt.Tier != "" {
		origTnt.Tier = tnt.Tier
	}
	if isActive != nil {
		origTnt.IsActive = isActive
	}
	if !tnt.UpdatedAt.IsZero() {
		origTnt.UpdatedAt = tnt.UpdatedAt
	}

	repo.db.table[tnt.ID] = origTnt
	return *origTnt, nil
}

func (repo *tenantRepository) DeleteTenantsByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
