package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minumate/backend/core"
	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/project"
)

type projectApi struct {
	deps ServerDeps
}

func registerProjectAdminAPI(g *echo.Group, deps ServerDeps) {
	api := projectApi{deps: deps}

	pg := g.Group("/projects")
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
	pg.GET("/:id/meetings", api.queryMeetings)
	pg.POST("/:id/meetings/:meetingID", api.linkMeeting)
	pg.DELETE("/:id/meetings/:meetingID", api.unlinkMeeting)
}

func (api *projectApi) query(ctx echo.Context) error {
	projects, err := api.deps.ProjectSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return ctx.JSON(http.StatusOK, projects)
}

func (api *projectApi) create(ctx echo.Context) error {
	var data project.NewProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	prj, err := api.deps.ProjectSvc.Create(data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, prj)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	prj, err := api.deps.ProjectSvc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == project.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding project")
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.deps.ProjectSvc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == project.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding project")
	}

	var data project.UpdateProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProject")
	}
	if err := data.Validate(orig, api.deps.Validate); err != nil {
		return err
	}

	prj, err := api.deps.ProjectSvc.Update(id, data)
	if err != nil {
		return errors.Wrap(err, "updating project")
	}
	return ctx.JSON(http.StatusOK, prj)
}

func (api *projectApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := api.deps.ProjectSvc.GetByID(id); err != nil {
		if errors.Cause(err) == project.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding project")
	}
	if err := api.deps.ProjectSvc.Delete(id); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *projectApi) queryMeetings(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := api.deps.ProjectSvc.GetByID(id); err != nil {
		if errors.Cause(err) == project.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding project")
	}
	meetings, err := api.deps.ProjectSvc.QueryMeetings(id)
	if err != nil {
		return errors.Wrap(err, "querying project meetings")
	}
	if meetings == nil {
		meetings = []meeting.Meeting{}
	}
	return ctx.JSON(http.StatusOK, meetings)
}

func (api *projectApi) linkMeeting(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	meetingID, err := intParam(ctx, "meetingID")
	if err != nil {
		return err
	}
	if err := api.deps.ProjectSvc.LinkMeeting(id, meetingID); err != nil {
		if errors.Cause(err) == project.ErrAlreadyLinked {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "linking meeting")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *projectApi) unlinkMeeting(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	meetingID, err := intParam(ctx, "meetingID")
	if err != nil {
		return err
	}
	if err := api.deps.ProjectSvc.UnlinkMeeting(id, meetingID); err != nil {
		if errors.Cause(err) == project.ErrNotLinked {
			return errHttpNotFound
		}
		return errors.Wrap(err, "unlinking meeting")
	}
	return ctx.NoContent(http.StatusNoContent)
}
