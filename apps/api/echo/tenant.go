package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/tenant"
	"github.com/darasahq/darasa/core/user"
)

type tenantApi struct {
	svc      tenant.Service
	validate *validator.Validate
}

func registerTenantAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc tenant.Service, validate *validator.Validate) {
	api := tenantApi{
		svc:      svc,
		validate: validate,
	}

	// tenant management is reserved to the platform operator
	tg := g.Group("/tenants", jwt, adminMiddleware(string(user.RoleSuperAdmin)))
	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.DELETE("", api.destroyMultiple)

	dg := tg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *tenantApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tnt, err := api.svc.GetByID(ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == tenant.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding tenant by ID")
		}
		ctx.Set("object", tnt)
		return next(ctx)
	}
}

// Handlers

func (api *tenantApi) create(ctx echo.Context) error {
	var data tenant.NewTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTenant")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	tnt, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating tenant")
	}
	return ctx.JSON(http.StatusCreated, tnt)
}

func (api *tenantApi) query(ctx echo.Context) error {
	tenants, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	return ctx.JSON(http.StatusOK, tenants)
}

func (api *tenantApi) retrieve(ctx echo.Context) error {
	tnt, ok := ctx.Get("object").(tenant.Tenant)
	if !ok {
		return errors.New("tenant object not found in echo.Context")
	}
	return ctx.JSON(http.StatusOK, tnt)
}

func (api *tenantApi) update(ctx echo.Context) error {
	tnt, ok := ctx.Get("object").(tenant.Tenant)
	if !ok {
		return errors.New("tenant object not found in echo.Context")
	}

	var data tenant.UpdateTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTenant")
	}
	if err := data.Validate(api.validate, tnt, api.svc); err != nil {
		return err
	}

	tnt, err := api.svc.Update(tnt.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating tenant")
	}
	return ctx.JSON(http.StatusOK, tnt)
}

func (api *tenantApi) destroy(ctx echo.Context) error {
	tnt, ok := ctx.Get("object").(tenant.Tenant)
	if !ok {
		return errors.New("tenant object not found in echo.Context")
	}
	if err := api.svc.Delete(tnt.ID); err != nil {
		return errors.Wrap(err, "deleting tenant")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *tenantApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting tenants")
	}
	return ctx.NoContent(http.StatusNoContent)
}
