package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/admin"
	"github.com/scholium-app/scholium/core/scholium"
	"github.com/scholium-app/scholium/core/user"
)

type adminApi struct {
	svc         admin.Service
	usrSvc      user.Service
	scholiumSvc scholium.Service
	validate    *validator.Validate
}

func registerAdminAPI(g *echo.Group, authed echo.MiddlewareFunc, opts *Options) {
	api := adminApi{
		svc:         opts.AdminSvc,
		usrSvc:      opts.UserSvc,
		scholiumSvc: opts.ScholiumSvc,
		validate:    opts.Validate,
	}

	ag := g.Group("/admin", authed, adminMiddleware())
	ag.GET("/stats", api.stats)
	ag.GET("/users", api.queryUsers)
	ag.POST("/users", api.createUser)
	ag.PUT("/users/:id/role", api.updateRole)
	ag.DELETE("/users/:id", api.destroyUser)
	ag.GET("/scholiums", api.queryScholiums)
	ag.DELETE("/scholiums/:id", api.destroyScholium)
}

// Handlers

func (api *adminApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *adminApi) queryUsers(ctx echo.Context) error {
	users, err := api.usrSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.usrSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *adminApi) updateRole(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data user.UpdateRole
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRole")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.usrSvc.UpdateRole(ctx.Request().Context(), id, data.Role); err != nil {
		return errors.Wrap(err, "updating role")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) destroyUser(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.usrSvc.Delete(ctx.Request().Context(), ctxUsr.ID, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryScholiums(ctx echo.Context) error {
	summaries, err := api.svc.QueryScholiums(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying scholiums")
	}
	if summaries == nil {
		summaries = []admin.ScholiumSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *adminApi) destroyScholium(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.scholiumSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting scholium")
	}
	return ctx.NoContent(http.StatusNoContent)
}
