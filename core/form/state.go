package form

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Value is the closed set of things a form field can hold: free text,
// a dropdown selection, or a calendar date. A missing map entry is the
// empty value.
type Value interface {
	isValue()
}

type (
	// Text is a free-form (possibly display-formatted) string value.
	Text string

	// Choice is a selected dropdown option.
	Choice Option

	// Date is a calendar selection.
	Date time.Time
)

func (Text) isValue()   {}
func (Choice) isValue() {}
func (Date) isValue()   {}

// State is the mutable record backing one active form, keyed by field id.
// It is only mutated through the change handlers below; concurrent edits
// are last-write-wins.
type State map[string]Value

func NewState() State { return make(State) }

// Change applies a keystroke-level text change to a field.
// Numeric fields hard-reject input containing non-digits (state unchanged).
// Currency fields store the locale-formatted rendering of the digits.
// Everything else is stored verbatim.
func (st State) Change(fld Field, raw string) {
	switch fld.Validation {
	case RuleNumeric:
		if !IsNumeric(raw) {
			return
		}
	case RuleCurrency:
		st[fld.ID] = Text(FormatCurrency(raw))
		return
	}
	st[fld.ID] = Text(raw)
}

// Select stores a dropdown selection.
func (st State) Select(fld Field, opt Option) {
	st[fld.ID] = Choice(opt)
}

// SetDate stores a calendar selection.
func (st State) SetDate(fld Field, t time.Time) {
	st[fld.ID] = Date(t)
}

// Clear discards all entered values.
func (st State) Clear() {
	for id := range st {
		delete(st, id)
	}
}

// calendar wire formats accepted from clients, most specific first
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseSubmission builds a State from a raw submission payload, decoding
// each entry according to its field's kind. Entries without a matching
// field and fields of unknown kind are ignored.
func ParseSubmission(schema *Schema, payload map[string]json.RawMessage) (State, error) {
	st := NewState()
	for i := range schema.Fields {
		fld := &schema.Fields[i]
		raw, ok := payload[fld.ID]
		if !ok {
			continue
		}
		switch fld.Kind {
		case KindInput:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, errors.Wrapf(err, "decoding field %q", fld.ID)
			}
			st.Change(*fld, s)
		case KindDropdown:
			var opt Option
			if err := json.Unmarshal(raw, &opt); err == nil && (opt.Code != "" || opt.Name != "") {
				st.Select(*fld, opt)
				break
			}
			var code string
			if err := json.Unmarshal(raw, &code); err != nil {
				return nil, errors.Wrapf(err, "decoding field %q", fld.ID)
			}
			st.Select(*fld, Option{Code: code, Name: code})
		case KindCalendar:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, errors.Wrapf(err, "decoding field %q", fld.ID)
			}
			if t, ok := parseDate(s); ok {
				st.SetDate(*fld, t)
			} else {
				st[fld.ID] = Text(s)
			}
		case KindUnknown:
			// unrenderable field, nothing to bind
		}
	}
	return st, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
