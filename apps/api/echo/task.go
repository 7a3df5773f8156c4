package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minumate/backend/core/task"
)

type taskApi struct {
	deps ServerDeps
}

func registerTaskAPI(g *echo.Group, deps ServerDeps) {
	api := taskApi{deps: deps}

	tg := g.Group("/tasks")
	tg.GET("", api.queryMine)
	tg.PUT("/:id", api.updateStatus)
}

func (api *taskApi) queryMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	tasks, err := api.deps.TaskSvc.QueryByAssignee(ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) updateStatus(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data task.UpdateTaskStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTaskStatus")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	tsk, err := api.deps.TaskSvc.UpdateStatus(id, ctxUsr.ID, data.Status)
	if err != nil {
		switch errors.Cause(err) {
		case task.ErrNotFound:
			return errHttpNotFound
		case task.ErrNotAssignee:
			return errHttpForbidden
		}
		return errors.Wrap(err, "updating task status")
	}
	return ctx.JSON(http.StatusOK, tsk)
}
