package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/auth"
	"github.com/certiko/backoffice/core/session"
)

type authApi struct {
	svc *auth.Service
}

func registerAuthAPI(g *echo.Group, svc *auth.Service) {
	api := authApi{svc: svc}

	ug := g.Group("/usuarios")
	ug.POST("/autenticar", api.login)
	ug.POST("/olvido", api.forgotPassword)
	ug.POST("/restaurar", api.restorePassword)
	ug.POST("/salir", api.logout)
	ug.GET("/recordado", api.rememberedUsername)
}

type (
	LoginRequest struct {
		Usuario  string `json:"usuario" validate:"required"`
		Clave    string `json:"clave" validate:"required"`
		Recordar bool   `json:"recordar"`
	}

	LoginResponse struct {
		Token   string       `json:"token"`
		Usuario session.User `json:"usuario"`
	}

	ForgotPasswordRequest struct {
		Usuario string `json:"usuario" validate:"required"`
		Correo  string `json:"correo" validate:"required,email"`
	}

	RestorePasswordRequest struct {
		Token string `json:"token" validate:"required"`
		Clave string `json:"clave" validate:"required,min=8"`
	}
)

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Usuario, data.Clave, data.Recordar)
	if err != nil {
		switch errors.Cause(err) {
		case auth.ErrBadCredentials, auth.ErrInactiveUser:
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "authenticating")
	}

	token, err := GenerateToken(GetSessionClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setSessionCookie(ctx, token)

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Usuario: usr})
}

func (api *authApi) forgotPassword(ctx echo.Context) error {
	var data ForgotPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ForgotPasswordRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	resp, err := api.svc.ForgotPassword(ctx.Request().Context(), data.Usuario, data.Correo)
	if err != nil {
		return errors.Wrap(err, "requesting password recovery")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) restorePassword(ctx echo.Context) error {
	var data RestorePasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RestorePasswordRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	resp, err := api.svc.RestorePassword(ctx.Request().Context(), data.Token, data.Clave)
	if err != nil {
		return errors.Wrap(err, "restoring password")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) logout(ctx echo.Context) error {
	if err := api.svc.Logout(); err != nil {
		return errors.Wrap(err, "logging out")
	}
	clearSessionCookie(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) rememberedUsername(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"usuario": api.svc.RememberedUsername()})
}
