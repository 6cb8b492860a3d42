package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/billing"
	"github.com/darasahq/darasa/core/tenant"
)

type tenantRow struct {
	ID        string      `db:"id"`
	Name      null.String `db:"name"`
	Slug      null.String `db:"slug"`
	IsActive  null.Bool   `db:"is_active"`
	Tier      null.String `db:"tier"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (row tenantRow) unpack() tenant.Tenant {
	return tenant.Tenant{
		ID:        row.ID,
		Name:      row.Name.String,
		Slug:      row.Slug.String,
		IsActive:  row.IsActive.Ptr(),
		Tier:      billing.Tier(row.Tier.String),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

type tenantRepository struct {
	db *sqlx.DB
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *sqlx.DB) tenant.Repository {
	return &tenantRepository{db: db}
}

func (repo *tenantRepository) CheckSlugUniqueness(slug string, excludedTenants ...tenant.Tenant) error {
	query := `SELECT slug FROM tenant WHERE slug = $1`
	args := []interface{}{slug}
	if len(excludedTenants) > 0 {
		ids := make([]string, 0, len(excludedTenants))
		for _, tnt := range excludedTenants {
			ids = append(ids, tnt.ID)
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}

	var rows []tenantRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if len(rows) > 0 {
		return tenant.ErrSlugExists
	}
	return nil
}

func (repo *tenantRepository) CreateTenant(tnt tenant.Tenant) (tenant.Tenant, error) {
	query := `
		INSERT INTO tenant (id, name, slug, is_active, tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.Exec(query,
		tnt.ID,
		tnt.Name,
		tnt.Slug,
		null.BoolFromPtr(tnt.IsActive),
		string(tnt.Tier),
		tnt.CreatedAt,
		tnt.UpdatedAt,
	)
	if err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "creating tenant")
	}
	return tnt, nil
}

func (repo *tenantRepository) getOne(query string, args ...interface{}) (tenant.Tenant, error) {
	var row tenantRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return tenant.Tenant{}, tenant.ErrNotFound
		}
		return tenant.Tenant{}, errors.Wrap(err, "getting tenant")
	}
	return row.unpack(), nil
}

func (repo *tenantRepository) QueryAllTenants() ([]tenant.Tenant, error) {
	var rows []tenantRow
	if err := repo.db.Select(&rows, `SELECT * FROM tenant ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying tenants")
	}
	tenants := make([]tenant.Tenant, 0, len(rows))
	for _, row := range rows {
		tenants = append(tenants, row.unpack())
	}
	return tenants, nil
}

func (repo *tenantRepository) GetTenantByID(id string) (tenant.Tenant, error) {
	return repo.getOne(`SELECT * FROM tenant WHERE id = $1`, id)
}

func (repo *tenantRepository) GetTenantBySlug(slug string) (tenant.Tenant, error) {
	return repo.getOne(`SELECT * FROM tenant WHERE slug = $1`, slug)
}

func (repo *tenantRepository) UpdateTenant(tnt tenant.Tenant, isActive *bool) (tenant.Tenant, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	// only save set fields
	if tnt.Name != "" {
		set("name", tnt.Name)
	}
	if tnt.Slug != "" {
		set("slug", tnt.Slug)
	}
	if tnt.Tier != "" {
		set("tier", string(tnt.Tier))
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if !tnt.UpdatedAt.IsZero() {
		set("updated_at", tnt.UpdatedAt)
	}
	if len(sets) == 0 {
		return repo.GetTenantByID(tnt.ID)
	}

	args = append(args, tnt.ID)
	query := fmt.Sprintf(`UPDATE tenant SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "updating tenant")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	return repo.GetTenantByID(tnt.ID)
}

func (repo *tenantRepository) DeleteTenantsByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.Exec(`DELETE FROM tenant WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting tenants")
	}
	return nil
}
