package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core/course"
	"github.com/nkashama/duetrack/core/task"
	"github.com/nkashama/duetrack/core/user"
)

type courseApi struct {
	svc      course.ServiceInterface
	taskSvc  task.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:      deps.CourseSvc,
		taskSvc:  deps.TaskSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/code/:code", api.retrieveByCode)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/tasks", api.queryTasks)
}

func (api *courseApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate, api.svc, usr.ID); err != nil {
		return err
	}

	crs, err := api.svc.Add(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.svc.QueryForUser(usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) retrieveByCode(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.GetByCode(usr.ID, ctx.Param("code"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by code")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate, crs, api.svc); err != nil {
		return err
	}

	updated, err := api.svc.Update(crs, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryTasks(ctx echo.Context) error {
	crs, err := api.ownedCourse(ctx)
	if err != nil {
		return err
	}

	tasks, err := api.taskSvc.ByCourse(crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying course tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

// ownedCourse loads the course in :id and enforces ownership.
func (api *courseApi) ownedCourse(ctx echo.Context) (course.Course, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, errHttpNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	if crs.UserID != usr.ID {
		return course.Course{}, errHttpNotFound
	}
	return crs, nil
}
