// Package certificate drives the issuance flow: card lookups, client
// records, dynamic form configuration and the Moodle-linked events.
package certificate

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/form"
)

var errInvalidForm = errors.New("el formulario contiene campos invalidos")

type apiClient interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
}

type Service struct {
	api apiClient
}

func NewService(api apiClient) *Service {
	return &Service{api: api}
}

// Card is an issued certificate card as listed by the lookup page.
type Card struct {
	Secuencia   int    `json:"secuencia,omitempty"`
	Documento   string `json:"documento"`
	Nombre      string `json:"nombre,omitempty"`
	TipoEvento  string `json:"tipo_evento,omitempty"`
	FechaEvento string `json:"fecha_evento,omitempty"`
	Estado      string `json:"estado,omitempty"`
}

// Client is the person a certificate is issued to.
type Client struct {
	Documento string `json:"documento"`
	Nombre    string `json:"nombre,omitempty"`
	Apellido  string `json:"apellido,omitempty"`
	Correo    string `json:"correo,omitempty"`
	Telefono  string `json:"telefono,omitempty"`
	Ciudad    string `json:"ciudad,omitempty"`
	Empresa   int    `json:"empresa,omitempty"`
}

// MoodleEvent links an issued certificate to a catalog course.
type MoodleEvent struct {
	Secuencia  int    `json:"secuencia,omitempty"`
	Cliente    string `json:"cliente"`
	Curso      string `json:"curso,omitempty"`
	Estado     string `json:"estado,omitempty"`
	FechaCurso string `json:"fecha_curso,omitempty"`
}

// WelcomeData is the payload forwarded when the upstream sends the
// course welcome email on our behalf.
type WelcomeData struct {
	Correo  string `json:"correo"`
	Nombre  string `json:"nombre"`
	Usuario string `json:"usuario"`
	Clave   string `json:"clave"`
	Curso   string `json:"curso"`
	Empresa int    `json:"empresa,omitempty"`
}

// LookupCard lists the cards issued to a document within a company.
func (svc *Service) LookupCard(ctx context.Context, documento string, empresa int) ([]Card, error) {
	query := url.Values{"documento": {documento}, "empresa": {strconv.Itoa(empresa)}}
	var cards []Card
	err := svc.api.Get(ctx, "/carnet/cliente", query, &cards)
	return cards, err
}

// Generate produces a certificate document from the grouped submission.
func (svc *Service) Generate(ctx context.Context, payload interface{}, out interface{}) error {
	return svc.api.Post(ctx, "/reporte", payload, out)
}

// LookupClient fetches the client record for a document, if any.
func (svc *Service) LookupClient(ctx context.Context, documento string, empresa int) (*Client, error) {
	query := url.Values{"documento": {documento}, "empresa": {strconv.Itoa(empresa)}}
	var clients []Client
	if err := svc.api.Get(ctx, "/cliente", query, &clients); err != nil {
		return nil, err
	}
	if len(clients) == 0 {
		return nil, nil
	}
	return &clients[0], nil
}

func (svc *Service) CreateClient(ctx context.Context, cl Client) error {
	return svc.api.Post(ctx, "/cliente", cl, nil)
}

func (svc *Service) UpdateClient(ctx context.Context, cl Client) error {
	return svc.api.Post(ctx, "/cliente/modificar", cl, nil)
}

// CreateEvent records the service event a card is issued for.
func (svc *Service) CreateEvent(ctx context.Context, evento interface{}, out interface{}) error {
	return svc.api.Post(ctx, "/evento", evento, out)
}

// CreateCard registers the issued card itself.
func (svc *Service) CreateCard(ctx context.Context, carnet interface{}, out interface{}) error {
	return svc.api.Post(ctx, "/carnet", carnet, out)
}

// Config fetches the dynamic form configuration for a service type.
func (svc *Service) Config(ctx context.Context, secuencia int) (*form.Schema, error) {
	query := url.Values{"secuencia": {strconv.Itoa(secuencia)}}
	var schema form.Schema
	if err := svc.api.Get(ctx, "/tipo_evento/configuracion", query, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// MoodleConfig fetches the per-company catalog connection settings.
func (svc *Service) MoodleConfig(ctx context.Context, empresa int) (*form.MoodleSettings, error) {
	query := url.Values{"empresa": {strconv.Itoa(empresa)}}
	var settings form.MoodleSettings
	if err := svc.api.Get(ctx, "/moodle/configuracion", query, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SendMoodleWelcome asks the upstream to deliver the course welcome
// email with the learner's credentials.
func (svc *Service) SendMoodleWelcome(ctx context.Context, datos WelcomeData) error {
	body := map[string]interface{}{"datos": datos}
	return svc.api.Post(ctx, "/moodle/bienvenida", body, nil)
}

// MoodleEvents lists a client's course-linked events; curso narrows the
// listing when non-empty.
func (svc *Service) MoodleEvents(ctx context.Context, cliente string, empresa int, curso string) ([]MoodleEvent, error) {
	query := url.Values{"cliente": {cliente}, "empresa": {strconv.Itoa(empresa)}}
	if curso != "" {
		query.Set("curso", curso)
	}
	var events []MoodleEvent
	err := svc.api.Get(ctx, "/moodle/evento", query, &events)
	return events, err
}

// Submission is a validated form ready for the upstream: the grouped
// payload plus the composite key of the concatenated fields.
type Submission struct {
	Payload form.GroupedPayload
	Key     string
}

// BuildSubmission validates the state against the schema and produces
// the grouped payload and composite key. An invalid state returns the
// per-field errors instead.
func BuildSubmission(st form.State, schema *form.Schema) (*Submission, error) {
	if errs := st.FieldErrors(schema.Fields); len(errs) > 0 {
		return nil, core.NewValidationError(errInvalidForm, errs...)
	}
	return &Submission{
		Payload: form.Transform(st, schema.Fields),
		Key:     form.Concat(st, schema.Fields),
	}, nil
}
