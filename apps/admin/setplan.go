package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/billing"
	"github.com/darasahq/darasa/core/tenant"
)

// setPlan assigns a subscription tier to a tenant, identified by ID or
// slug. Today's AI query usage is reset unless keepUsage is set.
func (cli *commandLine) setPlan(idOrSlug string, tier billing.Tier, keepUsage bool) error {
	if !tier.Valid() {
		return billing.ErrInvalidTier
	}

	tnt, err := cli.tntSvc.GetByID(idOrSlug)
	if err != nil {
		if errors.Cause(err) != tenant.ErrNotFound {
			return err
		}
		if tnt, err = cli.tntSvc.GetBySlug(idOrSlug); err != nil {
			return err
		}
	}

	if _, err = cli.tntSvc.SetTier(tnt.ID, tier); err != nil {
		return err
	}

	eng, err := cli.tntSvc.Engine(tnt.ID)
	if err != nil {
		return err
	}
	if !keepUsage {
		eng.ResetDailyQueries()
	}

	fmt.Printf("Tenant %s (%s) updated to tier %s\n", tnt.ID, tnt.Slug, tier)
	fmt.Printf("daily_ai_queries=%d\n", eng.QueryLimit())
	fmt.Printf("used_today=%d\n", eng.UsedQueries())
	return nil
}
