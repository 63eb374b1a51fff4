package form

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Kind is the closed set of input widgets a Field can render as.
// Wire tags not in the set decode to KindUnknown; such fields render
// nothing and are skipped by validation and transformation, matching
// the configuration contract of the backend.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindDropdown
	KindCalendar
)

var (
	kindNames = map[Kind]string{
		KindInput:    "input",
		KindDropdown: "dropdown",
		KindCalendar: "calendar",
	}
	kindValues = map[string]Kind{
		"input":    KindInput,
		"dropdown": KindDropdown,
		"calendar": KindCalendar,
	}
)

func (k Kind) String() string { return kindNames[k] }

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(kindNames[k])
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding field kind")
	}
	*k = kindValues[s] // unknown tags map to KindUnknown
	return nil
}

// Rule is the closed set of per-field validation rules.
type Rule int

const (
	RuleNone Rule = iota
	RuleNumeric
	RuleCurrency
	RuleEmail
)

var (
	ruleNames = map[Rule]string{
		RuleNone:     "",
		RuleNumeric:  "numeric",
		RuleCurrency: "currency",
		RuleEmail:    "email",
	}
	ruleValues = map[string]Rule{
		"":         RuleNone,
		"numeric":  RuleNumeric,
		"currency": RuleCurrency,
		"email":    RuleEmail,
	}
)

func (r Rule) String() string { return ruleNames[r] }

func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(ruleNames[r])
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding validation rule")
	}
	*r = ruleValues[s]
	return nil
}

// Option is a selectable dropdown entry.
type Option struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Field describes one form input. Immutable once its Schema is loaded,
// except for externally sourced option lists (see EnsureCourseField).
type Field struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"type"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder,omitempty"`
	Validation  Rule     `json:"validation,omitempty"`
	Required    bool     `json:"required,omitempty"`
	OnBlur      string   `json:"onBlur,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Group       string   `json:"group,omitempty"`
	Concat      bool     `json:"concat,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// Button describes a form action button.
type Button struct {
	Type     string `json:"type"`
	Label    string `json:"label"`
	Action   string `json:"action"`
	Severity string `json:"severity,omitempty"`
}

// MoodleSettings is the course-catalog connection delivered with a schema.
type MoodleSettings struct {
	BaseURL     string `json:"baseUrl"`
	Token       string `json:"token"`
	ServiceName string `json:"serviceName,omitempty"`
}

// Schema is the declarative description of a dynamic form, delivered by
// the backend (`/tipo_evento/configuracion`) or embedded statically.
type Schema struct {
	Title        string          `json:"title"`
	Subtitle     string          `json:"subtitle,omitempty"`
	Name         string          `json:"name,omitempty"`
	Type         string          `json:"type,omitempty"`
	Context      string          `json:"context"`
	Icon         string          `json:"icon,omitempty"`
	Admin        bool            `json:"admin,omitempty"`
	Order        int             `json:"order,omitempty"`
	Duration     int             `json:"duration,omitempty"`
	Fields       []Field         `json:"fields"`
	Buttons      []Button        `json:"buttons,omitempty"`
	Moodle       *MoodleSettings `json:"moodle,omitempty"`
	EnableMoodle bool            `json:"enableMoodleIntegration,omitempty"`
}

// ParseSchema decodes a schema configuration payload.
func ParseSchema(data []byte) (*Schema, error) {
	s := new(Schema)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "decoding form schema")
	}
	return s, nil
}

// Field returns the field with the given id, or nil.
func (s *Schema) Field(id string) *Field {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

// CourseFieldID is the dropdown injected when the course-catalog
// integration is enabled.
const CourseFieldID = "moodle_course"

// EnsureCourseField appends the course dropdown the first time catalog
// results arrive, or fills its option list in place if the field exists
// with no options yet. Existing fields and user-entered state are never
// touched; the field is never duplicated.
func (s *Schema) EnsureCourseField(options []Option) {
	if !s.EnableMoodle {
		return
	}
	fld := s.Field(CourseFieldID)
	if fld == nil {
		s.Fields = append(s.Fields, Field{
			ID:       CourseFieldID,
			Kind:     KindDropdown,
			Label:    "Curso de Moodle*",
			Required: true,
			Group:    "moodle",
			Options:  options,
		})
		return
	}
	if len(fld.Options) == 0 && len(options) > 0 {
		fld.Options = options
	}
}
