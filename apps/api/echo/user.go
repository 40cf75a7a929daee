package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/nkashama/duetrack/core/user"
)

type userApi struct {
	svc        user.ServiceInterface
	google     GoogleVerifier
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		svc:        deps.UserSvc,
		google:     deps.GoogleVerifier,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	loginLimit := rateLimitMiddleware(rate.Limit(1), 5)
	resetLimit := rateLimitMiddleware(rate.Limit(0.2), 3)
	ug.POST("/register", api.register)
	ug.POST("/login", api.login, loginLimit)
	ug.POST("/google-auth", api.googleAuth, loginLimit)
	ug.POST("/password-reset", api.resetPassword, resetLimit)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset, resetLimit)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.retrieve)
	ag.PUT("/me", api.update)
	ag.DELETE("/me", api.destroy)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, LoginResponse{Token: token, User: usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	usr, err := api.svc.GetByID(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *userApi) googleAuth(ctx echo.Context) error {
	var data GoogleAuthRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoogleAuthRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	gu, err := api.google.VerifyIDToken(ctx.Request().Context(), data.IDToken)
	if err != nil {
		return err
	}
	if gu.FirstName == "" {
		gu.FirstName = data.FirstName
	}
	if gu.LastName == "" {
		gu.LastName = data.LastName
	}

	usr, err := api.svc.GetOrCreateGoogleUser(gu)
	if err != nil {
		return errors.Wrap(err, "getting or creating google user")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}
	usr, err = api.svc.SetLastLogin(usr)
	if err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "If the email matches an account, a reset link has been sent",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Password has been reset"})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(api.validate, usr, api.svc); err != nil {
		return err
	}

	updated, err := api.svc.Update(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.Delete(usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}
