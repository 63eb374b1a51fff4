package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/company"
)

type companyApi struct {
	svc *company.Service
}

// registerCompanyAPI mounts tenant administration; everything here is
// reserved to the superadmin role.
func registerCompanyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *company.Service) {
	api := companyApi{svc: svc}

	ag := g.Group("/administrar", jwt, adminMiddleware())

	ag.GET("/empresa", api.companies)
	ag.GET("/empresa/activa", api.activeCompanies)
	ag.POST("/empresa", api.createCompany)
	ag.PUT("/empresa/estado", api.toggleCompany)
	ag.PUT("/empresa/nombre", api.renameCompany)

	ag.GET("/responsable", api.managers)
	ag.GET("/responsable/sinAsignar", api.unassignedManagers)
	ag.POST("/responsable", api.createManager)
	ag.PUT("/responsable", api.updateManager)
	ag.PUT("/responsable/estado", api.toggleManager)

	ag.GET("/usuario", api.users)
	ag.POST("/usuario", api.createUser)
	ag.PUT("/usuario", api.updateUser)
	ag.PUT("/usuario/clave", api.changeUserPassword)

	ag.GET("/rol", api.roles)
}

// optionalCompanyParam reads the empresa filter; zero means "all".
func optionalCompanyParam(ctx echo.Context) (int, error) {
	raw := ctx.QueryParam("empresa")
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "empresa", Error: "debe ser numerico"})
	}
	return val, nil
}

func (api *companyApi) companies(ctx echo.Context) error {
	companies, err := api.svc.Companies(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing companies")
	}
	if companies == nil {
		companies = []company.Company{}
	}
	return ctx.JSON(http.StatusOK, companies)
}

func (api *companyApi) activeCompanies(ctx echo.Context) error {
	companies, err := api.svc.ActiveCompanies(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing active companies")
	}
	if companies == nil {
		companies = []company.Company{}
	}
	return ctx.JSON(http.StatusOK, companies)
}

func (api *companyApi) createCompany(ctx echo.Context) error {
	var data company.Company
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Company")
	}
	if data.Nombre == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "nombre", Error: "requerido"})
	}
	if err := api.svc.CreateCompany(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "creating company")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *companyApi) toggleCompany(ctx echo.Context) error {
	var data company.Company
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Company")
	}
	if err := api.svc.ToggleCompany(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "toggling company state")
	}
	return ctx.NoContent(http.StatusOK)
}

func (api *companyApi) renameCompany(ctx echo.Context) error {
	var data company.Company
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Company")
	}
	if data.Nombre == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "nombre", Error: "requerido"})
	}
	if err := api.svc.RenameCompany(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "renaming company")
	}
	return ctx.NoContent(http.StatusOK)
}

func (api *companyApi) managers(ctx echo.Context) error {
	empresa, err := optionalCompanyParam(ctx)
	if err != nil {
		return err
	}
	managers, err := api.svc.Managers(ctx.Request().Context(), empresa)
	if err != nil {
		return errors.Wrap(err, "listing managers")
	}
	if managers == nil {
		managers = []company.Manager{}
	}
	return ctx.JSON(http.StatusOK, managers)
}

func (api *companyApi) unassignedManagers(ctx echo.Context) error {
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}
	managers, err := api.svc.UnassignedManagers(ctx.Request().Context(), empresa)
	if err != nil {
		return errors.Wrap(err, "listing unassigned managers")
	}
	if managers == nil {
		managers = []company.Manager{}
	}
	return ctx.JSON(http.StatusOK, managers)
}

func (api *companyApi) createManager(ctx echo.Context) error {
	var data company.Manager
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Manager")
	}
	if data.Documento == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "documento", Error: "requerido"})
	}
	if err := api.svc.CreateManager(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "creating manager")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *companyApi) updateManager(ctx echo.Context) error {
	var data company.Manager
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Manager")
	}
	if err := api.svc.UpdateManager(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "updating manager")
	}
	return ctx.NoContent(http.StatusOK)
}

func (api *companyApi) toggleManager(ctx echo.Context) error {
	var data company.Manager
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Manager")
	}
	if err := api.svc.ToggleManager(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "toggling manager state")
	}
	return ctx.NoContent(http.StatusOK)
}

func (api *companyApi) users(ctx echo.Context) error {
	empresa, err := optionalCompanyParam(ctx)
	if err != nil {
		return err
	}
	users, err := api.svc.Users(ctx.Request().Context(), empresa)
	if err != nil {
		return errors.Wrap(err, "listing users")
	}
	if users == nil {
		users = []company.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *companyApi) createUser(ctx echo.Context) error {
	var data company.User
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to User")
	}
	if data.Usuario == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "usuario", Error: "requerido"})
	}
	if err := api.svc.CreateUser(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *companyApi) updateUser(ctx echo.Context) error {
	var data company.User
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to User")
	}
	if err := api.svc.UpdateUser(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.NoContent(http.StatusOK)
}

func (api *companyApi) changeUserPassword(ctx echo.Context) error {
	var data company.User
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to User")
	}
	if data.Clave == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "clave", Error: "requerido"})
	}
	if err := api.svc.ChangeUserPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "changing user password")
	}
	return ctx.NoContent(http.StatusOK)
}

func (api *companyApi) roles(ctx echo.Context) error {
	admin := ctx.QueryParam("admin") == "true"
	roles, err := api.svc.Roles(ctx.Request().Context(), admin)
	if err != nil {
		return errors.Wrap(err, "listing roles")
	}
	if roles == nil {
		roles = []company.Role{}
	}
	return ctx.JSON(http.StatusOK, roles)
}
