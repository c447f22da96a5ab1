package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/homework"
)

const defaultDeadlineWindowDays = 7

type homeworkApi struct {
	svc      homework.Service
	validate *validator.Validate
}

func registerHomeworkAPI(g *echo.Group, authed echo.MiddlewareFunc, opts *Options) {
	api := homeworkApi{
		svc:      opts.HomeworkSvc,
		validate: opts.Validate,
	}

	sg := g.Group("/scholiums/:id", authed)

	hg := sg.Group("/homework")
	hg.GET("", api.query)
	hg.POST("", api.create)
	hg.GET("/upcoming", api.upcoming)
	hg.PUT("/:hwID", api.update)
	hg.DELETE("/:hwID", api.destroy)
	hg.POST("/:hwID/attachments", api.addAttachment)
	hg.GET("/:hwID/attachments", api.attachments)

	subg := sg.Group("/subjects")
	subg.GET("", api.subjects)
	subg.POST("", api.createSubject)
	subg.DELETE("/:subID", api.destroySubject)

	// completion is per-user and not scoped by path
	g.POST("/homework/:hwID/completion", api.toggleCompletion, authed)
}

// Handlers

func (api *homeworkApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data homework.NewHomework
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHomework")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	hw, err := api.svc.Create(ctx.Request().Context(), usr.ID, schID, data)
	if err != nil {
		return errors.Wrap(err, "creating homework")
	}
	return ctx.JSON(http.StatusCreated, hw)
}

func (api *homeworkApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	hws, err := api.svc.Query(ctx.Request().Context(), usr.ID, schID)
	if err != nil {
		return errors.Wrap(err, "querying homework")
	}
	if hws == nil {
		hws = []homework.Homework{}
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *homeworkApi) upcoming(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	days := defaultDeadlineWindowDays
	if v := ctx.QueryParam("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}

	hws, err := api.svc.UpcomingDeadlines(ctx.Request().Context(), usr.ID, schID, days)
	if err != nil {
		return errors.Wrap(err, "querying upcoming deadlines")
	}
	if hws == nil {
		hws = []homework.Homework{}
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *homeworkApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	hwID, err := pathID(ctx, "hwID")
	if err != nil {
		return err
	}

	var data homework.UpdateHomework
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateHomework")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	hw, err := api.svc.Update(ctx.Request().Context(), usr.ID, schID, hwID, data)
	if err != nil {
		return errors.Wrap(err, "updating homework")
	}
	return ctx.JSON(http.StatusOK, hw)
}

func (api *homeworkApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	hwID, err := pathID(ctx, "hwID")
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), usr.ID, schID, hwID); err != nil {
		return errors.Wrap(err, "deleting homework")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *homeworkApi) toggleCompletion(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	hwID, err := pathID(ctx, "hwID")
	if err != nil {
		return err
	}

	comp, err := api.svc.ToggleCompletion(ctx.Request().Context(), usr.ID, hwID)
	if err != nil {
		return errors.Wrap(err, "toggling completion")
	}
	return ctx.JSON(http.StatusOK, comp)
}

func (api *homeworkApi) subjects(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	subs, err := api.svc.Subjects(ctx.Request().Context(), usr.ID, schID)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subs == nil {
		subs = []homework.Subject{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *homeworkApi) createSubject(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data homework.NewSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), usr.ID, schID, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *homeworkApi) destroySubject(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	subID, err := pathID(ctx, "subID")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteSubject(ctx.Request().Context(), usr.ID, schID, subID); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *homeworkApi) addAttachment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	hwID, err := pathID(ctx, "hwID")
	if err != nil {
		return err
	}

	var data homework.NewAttachment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttachment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	at, err := api.svc.AddAttachment(ctx.Request().Context(), usr.ID, schID, hwID, data)
	if err != nil {
		return errors.Wrap(err, "adding attachment")
	}
	return ctx.JSON(http.StatusCreated, at)
}

func (api *homeworkApi) attachments(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	hwID, err := pathID(ctx, "hwID")
	if err != nil {
		return err
	}

	ats, err := api.svc.Attachments(ctx.Request().Context(), usr.ID, schID, hwID)
	if err != nil {
		return errors.Wrap(err, "querying attachments")
	}
	if ats == nil {
		ats = []homework.Attachment{}
	}
	return ctx.JSON(http.StatusOK, ats)
}
