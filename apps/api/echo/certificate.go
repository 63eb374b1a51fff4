package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/certificate"
	"github.com/certiko/backoffice/core/form"
	"github.com/certiko/backoffice/core/session"
	"github.com/certiko/backoffice/services/moodle"
)

type certificateApi struct {
	svc       *certificate.Service
	sessions  *session.Manager
	newMoodle func(settings form.MoodleSettings) *moodle.Service

	mu      sync.Mutex
	loaders map[int]*moodle.CourseLoader // keyed by empresa
}

func registerCertificateAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *certificate.Service,
	sessions *session.Manager,
	newMoodle func(settings form.MoodleSettings) *moodle.Service,
) {
	api := &certificateApi{
		svc:       svc,
		sessions:  sessions,
		newMoodle: newMoodle,
		loaders:   make(map[int]*moodle.CourseLoader),
	}

	cg := g.Group("/certificado", jwt)
	cg.GET("/carnet", api.lookupCard)
	cg.POST("/carnet", api.createCard)
	cg.GET("/cliente", api.lookupClient)
	cg.POST("/cliente", api.createClient)
	cg.PUT("/cliente", api.updateClient)
	cg.POST("/evento", api.createEvent)
	cg.GET("/configuracion", api.getConfig)
	cg.POST("/configuracion/cursos/reintentar", api.retryCourses)
	cg.POST("/emitir", api.submit)
}

func intQueryParam(ctx echo.Context, name string) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "requerido"})
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "debe ser numerico"})
	}
	return val, nil
}

func (api *certificateApi) lookupCard(ctx echo.Context) error {
	documento := ctx.QueryParam("documento")
	if documento == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "documento", Error: "requerido"})
	}
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}

	cards, err := api.svc.LookupCard(ctx.Request().Context(), documento, empresa)
	if err != nil {
		return errors.Wrap(err, "looking up cards")
	}
	if cards == nil {
		cards = []certificate.Card{}
	}
	return ctx.JSON(http.StatusOK, cards)
}

func (api *certificateApi) lookupClient(ctx echo.Context) error {
	documento := ctx.QueryParam("documento")
	if documento == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "documento", Error: "requerido"})
	}
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}

	client, err := api.svc.LookupClient(ctx.Request().Context(), documento, empresa)
	if err != nil {
		return errors.Wrap(err, "looking up client")
	}
	if client == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, client)
}

func (api *certificateApi) createClient(ctx echo.Context) error {
	var data certificate.Client
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Client")
	}
	if err := api.svc.CreateClient(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "creating client")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *certificateApi) updateClient(ctx echo.Context) error {
	var data certificate.Client
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Client")
	}
	if err := api.svc.UpdateClient(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "updating client")
	}
	return ctx.NoContent(http.StatusOK)
}

func (api *certificateApi) createEvent(ctx echo.Context) error {
	var data map[string]interface{}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding event")
	}
	var out json.RawMessage
	if err := api.svc.CreateEvent(ctx.Request().Context(), data, &out); err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSONBlob(http.StatusCreated, out)
}

func (api *certificateApi) createCard(ctx echo.Context) error {
	var data map[string]interface{}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding card")
	}
	var out json.RawMessage
	if err := api.svc.CreateCard(ctx.Request().Context(), data, &out); err != nil {
		return errors.Wrap(err, "creating card")
	}
	return ctx.JSONBlob(http.StatusCreated, out)
}

// ConfigResponse carries the dynamic form schema; when the course
// catalog is degraded the schema still renders (empty course options)
// and CursosError explains why.
type ConfigResponse struct {
	Schema      *form.Schema `json:"configuracion"`
	CursosError string       `json:"cursosError,omitempty"`
}

func (api *certificateApi) getConfig(ctx echo.Context) error {
	secuencia, err := intQueryParam(ctx, "secuencia")
	if err != nil {
		return err
	}

	schema, err := api.svc.Config(ctx.Request().Context(), secuencia)
	if err != nil {
		return errors.Wrap(err, "fetching form configuration")
	}

	resp := ConfigResponse{Schema: schema}
	if schema.EnableMoodle {
		empresa, err := intQueryParam(ctx, "empresa")
		if err != nil {
			return err
		}
		loader, err := api.courseLoader(ctx, empresa, schema)
		if err != nil {
			schema.EnsureCourseField(nil)
			resp.CursosError = err.Error()
		} else {
			opts, loadErr := loader.Load(ctx.Request().Context())
			schema.EnsureCourseField(opts)
			if loadErr != nil {
				resp.CursosError = loadErr.Error()
			}
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

// retryCourses restarts the catalog fetch for the company after a
// degraded configuration load.
func (api *certificateApi) retryCourses(ctx echo.Context) error {
	empresa, err := intQueryParam(ctx, "empresa")
	if err != nil {
		return err
	}

	api.mu.Lock()
	loader, ok := api.loaders[empresa]
	api.mu.Unlock()
	if !ok {
		return errHttpNotFound
	}

	opts, err := loader.Retry(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "retrying course fetch")
	}
	return ctx.JSON(http.StatusOK, opts)
}

// courseLoader returns the cached catalog loader for the company,
// building one from the schema's Moodle settings or, failing that, the
// upstream configuration. A failed configuration fetch is returned
// without caching anything so the next request retries the fetch.
func (api *certificateApi) courseLoader(ctx echo.Context, empresa int, schema *form.Schema) (*moodle.CourseLoader, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	if loader, ok := api.loaders[empresa]; ok {
		return loader, nil
	}

	var settings form.MoodleSettings
	if schema.Moodle != nil {
		settings = *schema.Moodle
	}
	if settings.BaseURL == "" {
		remote, err := api.svc.MoodleConfig(ctx.Request().Context(), empresa)
		if err != nil {
			return nil, errors.Wrap(err, "fetching moodle configuration")
		}
		settings = *remote
	}
	loader := moodle.NewCourseLoader(
		api.newMoodle(settings),
		core.Conf.Moodle.CourseRetries,
		core.Conf.Moodle.CourseRetryStep,
	)
	api.loaders[empresa] = loader
	return loader, nil
}

type (
	SubmitRequest struct {
		Secuencia int                        `json:"secuencia" validate:"required"`
		Empresa   int                        `json:"empresa"`
		Campos    map[string]json.RawMessage `json:"campos" validate:"required"`
	}

	SubmitResponse struct {
		Clave   string              `json:"clave"`
		Payload form.GroupedPayload `json:"payload"`
		Reporte json.RawMessage     `json:"reporte,omitempty"`
	}
)

// submit validates the dynamic form, transforms it into the grouped
// payload and generates the certificate upstream.
func (api *certificateApi) submit(ctx echo.Context) error {
	var data SubmitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	schema, err := api.svc.Config(ctx.Request().Context(), data.Secuencia)
	if err != nil {
		return errors.Wrap(err, "fetching form configuration")
	}
	st, err := form.ParseSubmission(schema, data.Campos)
	if err != nil {
		return core.NewValidationError(err)
	}

	sub, err := certificate.BuildSubmission(st, schema)
	if err != nil {
		return err
	}

	var reporte json.RawMessage
	if err := api.svc.Generate(ctx.Request().Context(), sub.Payload, &reporte); err != nil {
		return errors.Wrap(err, "generating certificate")
	}
	return ctx.JSON(http.StatusOK, SubmitResponse{Clave: sub.Key, Payload: sub.Payload, Reporte: reporte})
}
