package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/billing"
	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
)

type billingApi struct {
	svc tenant.Service
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc tenant.Service) {
	api := billingApi{svc: svc}

	bg := g.Group("/billing")

	// the plan catalog is public
	bg.GET("/plans", api.queryPlans)
	bg.GET("/features", api.queryFeatures)

	sg := bg.Group("/subscription", jwt)
	sg.GET("", api.retrieveSubscription)
	sg.GET("/features/:feature", api.checkFeature)
	sg.PUT("/tier", api.setTier, adminMiddleware(string(user.RoleSuperAdmin), string(user.RolePrincipal)))
	sg.POST("/ai-queries", api.incrementAIQuery)
	sg.POST("/reset", api.resetDailyQueries, adminMiddleware())
}

// engineForContext resolves the caller's quota engine. A super admin may
// act on any tenant via the `tenant_id` query param; everyone else is
// scoped to their own tenant.
func (api *billingApi) engineForContext(ctx echo.Context) (*billing.Engine, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context claims")
	}

	tenantID := claims.TenantID
	if id := ctx.QueryParam("tenant_id"); id != "" {
		if !contextHasAnyRole(ctx, []string{string(user.RoleSuperAdmin)}) {
			return nil, errHttpForbidden
		}
		tenantID = id
	}
	if tenantID == "" {
		return nil, errHttpNotFound
	}

	eng, err := api.svc.Engine(tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "loading quota engine")
	}
	return eng, nil
}

// Handlers

func (api *billingApi) queryPlans(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, billing.AllPlans())
}

func (api *billingApi) queryFeatures(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, billing.AllFeatures())
}

func (api *billingApi) retrieveSubscription(ctx echo.Context) error {
	eng, err := api.engineForContext(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSubscriptionResponse(eng))
}

func (api *billingApi) checkFeature(ctx echo.Context) error {
	eng, err := api.engineForContext(ctx)
	if err != nil {
		return err
	}

	feature := billing.Feature(ctx.Param("feature"))
	if !feature.Valid() {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, FeatureCheckResponse{
		Feature: feature,
		Enabled: eng.HasFeature(feature),
	})
}

func (api *billingApi) setTier(ctx echo.Context) error {
	eng, err := api.engineForContext(ctx)
	if err != nil {
		return err
	}

	var data SetTierRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetTierRequest")
	}

	if _, err := api.svc.SetTier(eng.TenantID(), data.Tier); err != nil {
		if errors.Cause(err) == billing.ErrInvalidTier {
			return echo.NewHTTPError(http.StatusBadRequest, billing.ErrInvalidTier.Error())
		}
		if errors.Cause(err) == tenant.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting tier")
	}
	return ctx.JSON(http.StatusOK, newSubscriptionResponse(eng))
}

func (api *billingApi) incrementAIQuery(ctx echo.Context) error {
	eng, err := api.engineForContext(ctx)
	if err != nil {
		return err
	}

	if !eng.IncrementAIQuery() {
		return errQuotaExhausted
	}
	return ctx.JSON(http.StatusOK, AIQueryResponse{
		Used:      eng.UsedQueries(),
		Limit:     eng.QueryLimit(),
		Remaining: eng.RemainingQueries(),
	})
}

func (api *billingApi) resetDailyQueries(ctx echo.Context) error {
	eng, err := api.engineForContext(ctx)
	if err != nil {
		return err
	}

	eng.ResetDailyQueries()
	return ctx.JSON(http.StatusOK, newSubscriptionResponse(eng))
}

type (
	SubscriptionResponse struct {
		TenantID  string            `json:"tenant_id"`
		Tier      billing.Tier      `json:"tier"`
		Plan      string            `json:"plan"`
		Limit     int               `json:"limit"`
		Used      int               `json:"used"`
		Remaining int               `json:"remaining"`
		Features  []billing.Feature `json:"features"`
	}

	FeatureCheckResponse struct {
		Feature billing.Feature `json:"feature"`
		Enabled bool            `json:"enabled"`
	}

	SetTierRequest struct {
		Tier billing.Tier `json:"tier" validate:"required,tier"`
	}

	AIQueryResponse struct {
		Used      int `json:"used"`
		Limit     int `json:"limit"`
		Remaining int `json:"remaining"`
	}
)

func newSubscriptionResponse(eng *billing.Engine) SubscriptionResponse {
	plan := eng.Plan()
	return SubscriptionResponse{
		TenantID:  eng.TenantID(),
		Tier:      eng.Tier(),
		Plan:      plan.Name,
		Limit:     eng.QueryLimit(),
		Used:      eng.UsedQueries(),
		Remaining: eng.RemainingQueries(),
		Features:  plan.Features,
	}
}
