package form

import (
	"github.com/certiko/backoffice/core"
)

// field-level validation texts
var (
	selectionRequiredText = "a selection is required"
	digitsOnlyText        = "only digits are allowed"
	invalidEmailText      = "invalid email address"
	requiredText          = "this field is required"
)

// Valid reports overall form validity: every field must satisfy, in
// order, the dropdown, numeric, email and required rules that apply to
// it. A single failing field fails the whole form; there is no partial
// submission. Validation failures gate the submit action, they are
// never raised as errors.
func (st State) Valid(fields []Field) bool {
	for _, fld := range fields {
		if !st.fieldValid(fld) {
			return false
		}
	}
	return true
}

func (st State) fieldValid(fld Field) bool {
	val, ok := st[fld.ID]

	// a dropdown only needs a defined value; its other flags do not apply
	if fld.Kind == KindDropdown {
		return ok
	}

	switch fld.Validation {
	case RuleNumeric:
		txt, isText := val.(Text)
		if !ok || !isText || !IsNumeric(string(txt)) {
			return false
		}
	case RuleEmail:
		txt, isText := val.(Text)
		if !ok || !isText || !core.IsEmail(string(txt)) {
			return false
		}
	}

	if fld.Required && isEmpty(val) {
		return false
	}
	return true
}

// FieldErrors returns the per-field validation failures, for surfacing
// next to the inputs. An empty result means the form is valid.
func (st State) FieldErrors(fields []Field) []core.FieldError {
	var errs []core.FieldError
	for _, fld := range fields {
		if msg := st.fieldError(fld); msg != "" {
			errs = append(errs, core.FieldError{Field: fld.ID, Error: msg})
		}
	}
	return errs
}

func (st State) fieldError(fld Field) string {
	val, ok := st[fld.ID]

	if fld.Kind == KindDropdown {
		if !ok {
			return selectionRequiredText
		}
		return ""
	}

	switch fld.Validation {
	case RuleNumeric:
		txt, isText := val.(Text)
		if !ok || !isText || !IsNumeric(string(txt)) {
			return digitsOnlyText
		}
	case RuleEmail:
		txt, isText := val.(Text)
		if !ok || !isText || !core.IsEmail(string(txt)) {
			return invalidEmailText
		}
	}

	if fld.Required && isEmpty(val) {
		return requiredText
	}
	return ""
}

func isEmpty(val Value) bool {
	if val == nil {
		return true
	}
	txt, isText := val.(Text)
	return isText && txt == ""
}
