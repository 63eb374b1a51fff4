package certificate

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/certiko/backoffice/core"
	"github.com/certiko/backoffice/core/form"
)

type fakeAPI struct {
	lastPath  string
	lastQuery url.Values
	lastBody  interface{}
	response  interface{}
}

func (f *fakeAPI) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	f.lastPath = path
	f.lastQuery = query
	return f.decode(out)
}

func (f *fakeAPI) Post(ctx context.Context, path string, body, out interface{}) error {
	f.lastPath = path
	f.lastBody = body
	return f.decode(out)
}

func (f *fakeAPI) Put(ctx context.Context, path string, body, out interface{}) error {
	return f.Post(ctx, path, body, out)
}

func (f *fakeAPI) decode(out interface{}) error {
	if out == nil || f.response == nil {
		return nil
	}
	data, err := json.Marshal(f.response)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func issuanceSchema() *form.Schema {
	return &form.Schema{
		Fields: []form.Field{
			{ID: "documento", Kind: form.KindInput, Validation: form.RuleNumeric, Required: true, Group: "cliente", Concat: true},
			{ID: "tipo", Kind: form.KindDropdown, Required: true, Group: "evento"},
			{ID: "fecha", Kind: form.KindCalendar, Required: true, Group: "evento", Concat: true},
		},
	}
}

func TestBuildSubmission(t *testing.T) {
	schema := issuanceSchema()
	st := form.NewState()
	st.Change(schema.Fields[0], "123")
	st.Select(schema.Fields[1], form.Option{Name: "Alturas", Code: "ALT"})
	st.Change(schema.Fields[2], "2024-05-01")

	sub, err := BuildSubmission(st, schema)
	assert.NoError(t, err)
	assert.Equal(t, "ALT", sub.Payload["evento"]["tipo"])
	assert.Equal(t, "2024-05-01", sub.Payload["evento"]["fecha"])
	assert.Equal(t, "123", sub.Payload["cliente"]["documento"])
	assert.Equal(t, "123_2024-05-01", sub.Key)
}

func TestBuildSubmissionRejectsInvalidState(t *testing.T) {
	schema := issuanceSchema()
	st := form.NewState()
	st.Change(schema.Fields[0], "123")
	// dropdown and date left unset

	sub, err := BuildSubmission(st, schema)
	assert.Nil(t, sub)
	verr, ok := core.AsValidationError(err)
	assert.True(t, ok, "expected a validation error, got %v", err)
	assert.NotEmpty(t, verr.Fields)
}

func TestMoodleEventsQuery(t *testing.T) {
	api := &fakeAPI{response: []MoodleEvent{{Cliente: "123", Curso: "7"}}}
	svc := NewService(api)

	events, err := svc.MoodleEvents(context.Background(), "123", 4, "")
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "/moodle/evento", api.lastPath)
	assert.Equal(t, "123", api.lastQuery.Get("cliente"))
	assert.Equal(t, "4", api.lastQuery.Get("empresa"))
	assert.Empty(t, api.lastQuery.Get("curso"), "curso is only sent when narrowing")

	_, err = svc.MoodleEvents(context.Background(), "123", 4, "7")
	assert.NoError(t, err)
	assert.Equal(t, "7", api.lastQuery.Get("curso"))
}

func TestLookupClientEmptyResult(t *testing.T) {
	api := &fakeAPI{response: []Client{}}
	svc := NewService(api)

	client, err := svc.LookupClient(context.Background(), "123", 4)
	assert.NoError(t, err)
	assert.Nil(t, client)
}
