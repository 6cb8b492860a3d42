package tenant

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/billing"
)

// Tenant is an isolated customer organization (a school).
type Tenant struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	IsActive  *bool        `json:"is_active"`
	Tier      billing.Tier `json:"tier"`
	CreatedAt time.Time    `json:"created_at"` // UTC
	UpdatedAt time.Time    `json:"updated_at"` // UTC
}

// NewTenant contains information needed to create a new Tenant.
type NewTenant struct {
	Name string       `json:"name" validate:"required"`
	Slug string       `json:"slug" validate:"required,slug"`
	Tier billing.Tier `json:"tier" validate:"omitempty,tier"`
}

func (nt *NewTenant) Validate(validate *validator.Validate, svc Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Slug = core.CleanString(nt.Slug, true /* lower */)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(nt.Slug)
}

// UpdateTenant defines what information may be provided to modify an existing Tenant.
type UpdateTenant struct {
	Name     string       `json:"name"`
	Slug     string       `json:"slug" validate:"omitempty,slug"`
	IsActive *bool        `json:"is_active"`
	Tier     billing.Tier `json:"tier" validate:"omitempty,tier"`
}

func (ut *UpdateTenant) Validate(validate *validator.Validate, origTnt Tenant, svc Service) error {
	name := core.CleanString(ut.Name)
	if name != "" {
		ut.Name = name
	} else {
		ut.Name = origTnt.Name
	}

	slug := core.CleanString(ut.Slug, true /* lower */)
	if slug != "" {
		ut.Slug = slug
	} else {
		ut.Slug = origTnt.Slug
	}

	if err := validate.Struct(ut); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(ut.Slug, origTnt)
}
