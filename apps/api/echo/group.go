package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core/group"
	"github.com/nkashama/duetrack/core/user"
)

type groupApi struct {
	svc      group.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := groupApi{
		svc:      deps.GroupSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	gg := g.Group("/groups", jwt)
	gg.GET("", api.query)
	gg.POST("", api.create)

	dg := gg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *groupApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	det, err := api.svc.Create(usr.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, det)
}

func (api *groupApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	groups, err := api.svc.QueryForUser(usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	det, _, err := api.memberGroup(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, det)
}

func (api *groupApi) update(ctx echo.Context) error {
	det, usr, err := api.memberGroup(ctx)
	if err != nil {
		return err
	}
	// only the creator may change a group
	if det.CreatedBy != usr.ID {
		return errHttpForbidden
	}

	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	updated, err := api.svc.Update(det.Group, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	det, usr, err := api.memberGroup(ctx)
	if err != nil {
		return err
	}
	if det.CreatedBy != usr.ID {
		return errHttpForbidden
	}
	if err := api.svc.Delete(det.ID); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// memberGroup loads the group in :id and ensures the caller belongs to it.
func (api *groupApi) memberGroup(ctx echo.Context) (group.Detail, user.User, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return group.Detail{}, user.User{}, errors.Wrap(err, "getting context user")
	}

	det, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return group.Detail{}, user.User{}, errHttpNotFound
		}
		return group.Detail{}, user.User{}, errors.Wrap(err, "finding group by ID")
	}
	if !det.HasMember(usr.ID) {
		return group.Detail{}, user.User{}, errHttpNotFound
	}
	return det, usr, nil
}
