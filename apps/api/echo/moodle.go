package echoapi

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/certificate"
	"github.com/certiko/backoffice/core/form"
	"github.com/certiko/backoffice/services/moodle"
)

type moodleApi struct {
	certSvc   *certificate.Service
	newMoodle func(settings form.MoodleSettings) *moodle.Service
	emailSvc  core.EmailService
	logger    core.Logger
}

func registerMoodleAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	certSvc *certificate.Service,
	newMoodle func(settings form.MoodleSettings) *moodle.Service,
	emailSvc core.EmailService,
	logger core.Logger,
) {
	api := moodleApi{certSvc: certSvc, newMoodle: newMoodle, emailSvc: emailSvc, logger: logger}

	mg := g.Group("/moodle", jwt)
	mg.GET("/cursos", api.courses)
	mg.POST("/matricular", api.enroll)
	mg.GET("/eventos", api.events)
	mg.GET("/progreso", api.progress)
}

func (api *moodleApi) service(ctx echo.Context, empresa int) (*moodle.Service, error) {
	settings, err := api.certSvc.MoodleConfig(ctx.Request().Context(), empresa)
	if err != nil {
		return nil, errors.Wrap(err, "fetching catalog settings")
	}
	return api.newMoodle(*settings), nil
}

func (api *moodleApi) courses(ctx echo.Context) error {
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}
	svc, err := api.service(ctx, empresa)
	if err != nil {
		return err
	}
	courses, err := svc.Courses(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, moodle.CourseOptions(courses))
}

type (
	EnrollRequest struct {
		Empresa     int    `json:"empresa" validate:"required"`
		Curso       int    `json:"curso" validate:"required"`
		CursoNombre string `json:"cursoNombre"`
		Documento   string `json:"documento" validate:"required"`
		Nombre      string `json:"nombre" validate:"required"`
		Apellido    string `json:"apellido"`
		Correo      string `json:"correo" validate:"required,email"`
		Telefono    string `json:"telefono"`
		Ciudad      string `json:"ciudad"`
	}

	EnrollResponse struct {
		UsuarioMoodle int  `json:"usuarioMoodle"`
		Nuevo         bool `json:"nuevo"`
	}
)

// enroll upserts the learner's catalog account, enrolls them in the
// course and, for new accounts, mails the generated credentials.
func (api *moodleApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	settings, err := api.certSvc.MoodleConfig(ctx.Request().Context(), data.Empresa)
	if err != nil {
		return errors.Wrap(err, "fetching catalog settings")
	}
	svc := api.newMoodle(*settings)

	usr, err := svc.CreateOrUpdateUser(ctx.Request().Context(), moodle.User{
		Username:  data.Documento,
		FirstName: data.Nombre,
		LastName:  data.Apellido,
		Email:     data.Correo,
		Phone:     data.Telefono,
		City:      data.Ciudad,
	})
	if err != nil {
		if errors.Cause(err) == moodle.ErrEmailConflict {
			return core.NewValidationError(nil, core.FieldError{Field: "correo", Error: err.Error()})
		}
		return err
	}

	if err := svc.Enroll(ctx.Request().Context(), usr.ID, data.Curso); err != nil {
		return err
	}

	isNew := usr.Password != ""
	if isNew {
		api.sendWelcome(ctx.Request().Context(), settings.BaseURL, data, usr)
	}
	return ctx.JSON(http.StatusOK, EnrollResponse{UsuarioMoodle: usr.ID, Nuevo: isNew})
}

func (api *moodleApi) sendWelcome(reqCtx context.Context, platformURL string, data EnrollRequest, usr *moodle.User) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: data.Nombre, Address: data.Correo}},
		Subject:      "Bienvenido a tu curso",
		TemplateName: "moodle-welcome",
		TemplateData: map[string]string{
			"FirstName":   data.Nombre,
			"CourseName":  data.CursoNombre,
			"PlatformURL": platformURL,
			"Username":    usr.Username,
			"Password":    usr.Password,
		},
	}
	api.emailSvc.SendMessages(msg)

	// also notify the business API so the event shows on the client file
	welcome := certificate.WelcomeData{
		Correo:  data.Correo,
		Nombre:  data.Nombre,
		Usuario: usr.Username,
		Clave:   usr.Password,
		Curso:   data.CursoNombre,
		Empresa: data.Empresa,
	}
	if err := api.certSvc.SendMoodleWelcome(reqCtx, welcome); err != nil {
		api.logger.Warn("recording moodle welcome upstream failed", err)
	}
}

func (api *moodleApi) events(ctx echo.Context) error {
	cliente := ctx.QueryParam("cliente")
	if cliente == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "cliente", Error: "requerido"})
	}
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}

	events, err := api.certSvc.MoodleEvents(ctx.Request().Context(), cliente, empresa, ctx.QueryParam("curso"))
	if err != nil {
		return errors.Wrap(err, "listing moodle events")
	}
	if events == nil {
		events = []certificate.MoodleEvent{}
	}
	return ctx.JSON(http.StatusOK, events)
}

// progress lists a learner's enrolled courses with their completion.
func (api *moodleApi) progress(ctx echo.Context) error {
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}
	usuarioMoodle, err := intQueryParam(ctx, "usuarioMoodle")
	if err != nil {
		return err
	}

	svc, err := api.service(ctx, empresa)
	if err != nil {
		return err
	}
	courses, err := svc.EnrolledCourses(ctx.Request().Context(), usuarioMoodle)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}
