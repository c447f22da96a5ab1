package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/scholium"
)

type scholiumApi struct {
	svc      scholium.Service
	validate *validator.Validate
}

func registerScholiumAPI(g *echo.Group, authed echo.MiddlewareFunc, opts *Options) {
	api := scholiumApi{
		svc:      opts.ScholiumSvc,
		validate: opts.Validate,
	}

	sg := g.Group("/scholiums", authed)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.POST("/join", api.join)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.POST("/renew-code", api.renewCode)
	dg.GET("/members", api.members)
	dg.PUT("/members/:userID/permissions", api.updatePermissions)
	dg.DELETE("/members/:userID", api.removeMember)
}

// Handlers

func (api *scholiumApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data scholium.NewScholium
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScholium")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating scholium")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *scholiumApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	schs, err := api.svc.QueryByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying scholiums")
	}
	if schs == nil {
		schs = []scholium.Scholium{}
	}
	return ctx.JSON(http.StatusOK, schs)
}

func (api *scholiumApi) join(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data scholium.JoinScholium
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinScholium")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.Join(ctx.Request().Context(), usr.ID, data.AccessCode)
	if err != nil {
		return errors.Wrap(err, "joining scholium")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *scholiumApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	details, err := api.svc.Details(ctx.Request().Context(), schID, usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting scholium details")
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *scholiumApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	state, err := api.svc.MemberState(ctx.Request().Context(), schID, usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting member state")
	}
	if !state.IsHost {
		return scholium.ErrNotHost
	}

	if err = api.svc.Delete(ctx.Request().Context(), schID); err != nil {
		return errors.Wrap(err, "deleting scholium")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scholiumApi) renewCode(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	code, err := api.svc.RenewAccessCode(ctx.Request().Context(), usr.ID, schID)
	if err != nil {
		return errors.Wrap(err, "renewing access code")
	}
	return ctx.JSON(http.StatusOK, AccessCodeResponse{AccessCode: code})
}

func (api *scholiumApi) members(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	members, err := api.svc.Members(ctx.Request().Context(), schID, usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	if members == nil {
		members = []scholium.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *scholiumApi) updatePermissions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	targetID, err := pathID(ctx, "userID")
	if err != nil {
		return err
	}

	var data scholium.UpdatePermissions
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePermissions")
	}

	if err = api.svc.UpdateMemberPermissions(ctx.Request().Context(), usr.ID, schID, targetID, data); err != nil {
		return errors.Wrap(err, "updating member permissions")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scholiumApi) removeMember(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	targetID, err := pathID(ctx, "userID")
	if err != nil {
		return err
	}

	if err = api.svc.RemoveMember(ctx.Request().Context(), usr.ID, schID, targetID); err != nil {
		return errors.Wrap(err, "removing member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type AccessCodeResponse struct {
	AccessCode string `json:"access_code"`
}

func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}
