// Package billing tracks a tenant's subscription tier and its daily
// usage of the metered AI-query capability, and answers feature
// availability and remaining-quota questions against a static plan table.
package billing

import "github.com/pkg/errors"

// Tier is one of the closed set of subscription plan levels.
type Tier string

const (
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
	TierMax   Tier = "max"
)

// Unlimited is the sentinel for ceilings that are not enforced.
const Unlimited = -1

// ErrInvalidTier signals a tier value outside the closed enumeration;
// it is the only error condition the engine raises.
var ErrInvalidTier = errors.New("invalid subscription tier")

// TierOrder lists tiers lowest capability first.
var TierOrder = []Tier{TierBasic, TierPro, TierMax}

var tierRanks = map[Tier]int{
	TierBasic: 1,
	TierPro:   2,
	TierMax:   3,
}

func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Rank orders tiers by capability; higher outranks lower.
func (t Tier) Rank() int {
	return tierRanks[t]
}

// Plan describes what a tier costs and unlocks. Feature sets are listed
// explicitly per plan; each higher plan's set is a superset of the one
// below by construction of this table.
type Plan struct {
	Tier           Tier      `json:"tier"`
	Name           string    `json:"name"`
	PriceCents     int64     `json:"price_cents"` // monthly, per tenant
	MaxUsers       int       `json:"max_users"`
	DailyAIQueries int       `json:"daily_ai_queries"`
	Features       []Feature `json:"features"`
}

// HasFeature reports membership of f in the plan's static feature set.
func (p Plan) HasFeature(f Feature) bool {
	for _, pf := range p.Features {
		if pf == f {
			return true
		}
	}
	return false
}

var plans = map[Tier]Plan{
	TierBasic: {
		Tier:           TierBasic,
		Name:           "Basic",
		PriceCents:     2900,
		MaxUsers:       200,
		DailyAIQueries: 5,
		Features: []Feature{
			FeatureAttendance,
			FeatureFeeManagement,
			FeatureAIAssistant,
		},
	},
	TierPro: {
		Tier:           TierPro,
		Name:           "Pro",
		PriceCents:     9900,
		MaxUsers:       1000,
		DailyAIQueries: 100,
		Features: []Feature{
			FeatureAttendance,
			FeatureFeeManagement,
			FeatureAIAssistant,
			FeatureHostelManagement,
			FeatureHelpdesk,
			FeatureBulkMessaging,
		},
	},
	TierMax: {
		Tier:           TierMax,
		Name:           "Max",
		PriceCents:     19900,
		MaxUsers:       Unlimited,
		DailyAIQueries: Unlimited,
		Features: []Feature{
			FeatureAttendance,
			FeatureFeeManagement,
			FeatureAIAssistant,
			FeatureHostelManagement,
			FeatureHelpdesk,
			FeatureBulkMessaging,
			FeatureAdvancedReports,
			FeatureAPIAccess,
		},
	},
}

// PlanFor returns the plan configured for tier.
func PlanFor(tier Tier) (Plan, error) {
	plan, ok := plans[tier]
	if !ok {
		return Plan{}, errors.Wrapf(ErrInvalidTier, "%q", tier)
	}
	return plan, nil
}

// MustPlanFor is like PlanFor but panics on an unknown tier.
func MustPlanFor(tier Tier) Plan {
	plan, err := PlanFor(tier)
	if err != nil {
		panic(err)
	}
	return plan
}

// AllPlans returns the plan catalog in TierOrder.
func AllPlans() []Plan {
	all := make([]Plan, 0, len(TierOrder))
	for _, tier := range TierOrder {
		all = append(all, plans[tier])
	}
	return all
}
