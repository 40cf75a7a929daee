package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core"
	"github.com/nkashama/duetrack/core/group"
	"github.com/nkashama/duetrack/core/task"
	"github.com/nkashama/duetrack/core/user"
)

type taskApi struct {
	svc      task.ServiceInterface
	userSvc  user.ServiceInterface
	groupSvc group.ServiceInterface
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := taskApi{
		svc:      deps.TaskSvc,
		userSvc:  deps.UserSvc,
		groupSvc: deps.GroupSvc,
		validate: deps.Validate,
	}

	tg := g.Group("/tasks", jwt)
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/status/:status", api.queryByStatus)
	tg.GET("/week", api.queryByWeek)
	tg.GET("/due/:date", api.queryByDueDate)
	tg.GET("/analytics/status", api.statusStats)
	tg.GET("/analytics/courses", api.courseStats)
	tg.GET("/analytics/time", api.timeStats)
	tg.GET("/analytics/completion", api.completionRates)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PATCH("/status", api.updateStatus)
	dg.DELETE("", api.destroy)

	sg := dg.Group("/subtasks")
	sg.GET("", api.querySubtasks)
	sg.POST("", api.createSubtask)
	sg.PUT("/:subtaskId", api.updateSubtask)
	sg.DELETE("/:subtaskId", api.destroySubtask)
}

// Handlers

func (api *taskApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tsk, err := api.svc.Add(usr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tsk)
}

func (api *taskApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tasks, err := api.svc.QueryForUser(usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) queryByStatus(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	status := ctx.Param("status")
	if !isTaskStatus(status) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "status",
			Error: "must be one of: pending, in-progress, completed, overdue",
		})
	}

	tasks, err := api.svc.ByStatus(usr.ID, status)
	if err != nil {
		return errors.Wrap(err, "querying tasks by status")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) queryByWeek(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tasks, err := api.svc.ByWeek(usr.ID, time.Now())
	if err != nil {
		return errors.Wrap(err, "querying tasks by week")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) queryByDueDate(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	date, err := time.Parse(task.DueDateLayout, ctx.Param("date"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{
			Field: "date",
			Error: "must be a date of the form YYYY-MM-DD",
		})
	}

	tasks, err := api.svc.ByDueDate(usr.ID, date)
	if err != nil {
		return errors.Wrap(err, "querying tasks by due date")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	tsk, _, err := api.visibleTask(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) update(ctx echo.Context) error {
	tsk, _, err := api.visibleTask(ctx)
	if err != nil {
		return err
	}

	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	updated, err := api.svc.Update(tsk, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *taskApi) updateStatus(ctx echo.Context) error {
	tsk, _, err := api.visibleTask(ctx)
	if err != nil {
		return err
	}

	var data struct {
		Status string `json:"status"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding status")
	}
	if !isTaskStatus(data.Status) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "status",
			Error: "must be one of: pending, in-progress, completed, overdue",
		})
	}

	updated, err := api.svc.UpdateStatus(tsk, data.Status)
	if err != nil {
		return errors.Wrap(err, "updating task status")
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	tsk, usr, err := api.visibleTask(ctx)
	if err != nil {
		return err
	}
	// only the owner may delete
	if tsk.UserID != usr.ID {
		return errHttpForbidden
	}
	if err := api.svc.Delete(tsk.ID); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subtasks

func (api *taskApi) querySubtasks(ctx echo.Context) error {
	tsk, _, err := api.visibleTask(ctx)
	if err != nil {
		return err
	}

	subtasks, err := api.svc.SubtasksForTask(tsk.ID)
	if err != nil {
		return errors.Wrap(err, "querying subtasks")
	}
	return ctx.JSON(http.StatusOK, subtasks)
}

func (api *taskApi) createSubtask(ctx echo.Context) error {
	tsk, _, err := api.visibleTask(ctx)
	if err != nil {
		return err
	}

	var data task.NewSubtask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubtask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.AddSubtask(tsk, data)
	if err != nil {
		return errors.Wrap(err, "adding subtask")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *taskApi) updateSubtask(ctx echo.Context) error {
	tsk, _, err := api.visibleTask(ctx)
	if err != nil {
		return err
	}

	st, err := api.subtaskOf(tsk, ctx.Param("subtaskId"))
	if err != nil {
		return err
	}

	var data task.UpdateSubtask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubtask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	updated, err := api.svc.UpdateSubtaskByID(st, data)
	if err != nil {
		return errors.Wrap(err, "updating subtask")
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *taskApi) destroySubtask(ctx echo.Context) error {
	tsk, _, err := api.visibleTask(ctx)
	if err != nil {
		return err
	}

	st, err := api.subtaskOf(tsk, ctx.Param("subtaskId"))
	if err != nil {
		return err
	}

	if err := api.svc.DeleteSubtask(tsk, st.ID); err != nil {
		return errors.Wrap(err, "deleting subtask")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Analytics

func (api *taskApi) statusStats(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	stats, err := api.svc.StatusStats(usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing status stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *taskApi) courseStats(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	stats, err := api.svc.CourseStats(usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing course stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *taskApi) timeStats(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	unit := ctx.QueryParam("unit")
	if unit == "" {
		unit = task.UnitWeek
	}
	stats, err := api.svc.TimeStats(usr.ID, unit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *taskApi) completionRates(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rates, err := api.svc.CompletionRates(usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing completion rates")
	}
	return ctx.JSON(http.StatusOK, rates)
}

// visibleTask loads the task in :id and enforces visibility (owner, shared
// with, or member of the task's group).
func (api *taskApi) visibleTask(ctx echo.Context) (task.Task, user.User, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return task.Task{}, user.User{}, errors.Wrap(err, "getting context user")
	}

	tsk, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return task.Task{}, user.User{}, errHttpNotFound
		}
		return task.Task{}, user.User{}, errors.Wrap(err, "finding task by ID")
	}
	if !api.taskVisibleTo(tsk, usr.ID) {
		return task.Task{}, user.User{}, errHttpNotFound
	}
	return tsk, usr, nil
}

func (api *taskApi) subtaskOf(tsk task.Task, subtaskID string) (task.Subtask, error) {
	st, err := api.svc.GetSubtaskByID(subtaskID)
	if err != nil {
		if errors.Cause(err) == task.ErrSubtaskNotFound {
			return task.Subtask{}, errHttpNotFound
		}
		return task.Subtask{}, errors.Wrap(err, "finding subtask by ID")
	}
	if st.ParentTask != tsk.ID {
		return task.Subtask{}, errHttpNotFound
	}
	return st, nil
}

func (api *taskApi) taskVisibleTo(tsk task.Task, userID string) bool {
	if tsk.UserID == userID {
		return true
	}
	for _, id := range tsk.SharedWith {
		if id == userID {
			return true
		}
	}
	if tsk.GroupID != "" {
		if det, err := api.groupSvc.GetByID(tsk.GroupID); err == nil {
			return det.HasMember(userID)
		}
	}
	return false
}

func isTaskStatus(status string) bool {
	switch status {
	case task.StatusPending, task.StatusInProgress, task.StatusCompleted, task.StatusOverdue:
		return true
	}
	return false
}
